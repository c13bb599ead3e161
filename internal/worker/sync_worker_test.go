package worker

import (
	"context"
	"path/filepath"
	"testing"

	"rentroll/internal/amqp"
	"rentroll/internal/core"
	sheetsmem "rentroll/internal/sheets/memory"
	"rentroll/internal/storage"
)

func newWorker(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *sheetsmem.Mirror) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "rentroll.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	mirror := sheetsmem.New()
	return NewSyncWorker(repo, mirror, 10), repo, mirror
}

func seedTenantWithPayment(t *testing.T, repo *storage.SQLiteRepository) {
	t.Helper()
	ctx := context.Background()
	tn := core.Tenant{
		ID:         "t1",
		RoomNo:     "101",
		Address:    "12 Fantasy Lane",
		EntryDate:  core.NewDate(2023, 1, 15),
		RentAmount: core.Money{Cents: 500000},
		Occupants:  []core.Person{{Name: "Alice", Phone: "123", IDType: "Citizen Card"}},
	}
	if err := repo.Add(ctx, tn); err != nil {
		t.Fatalf("add tenant: %v", err)
	}
	paid := core.StatusPaid
	bill := core.Money{Cents: 18000}
	if _, err := repo.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{RentStatus: &paid, ElectricityBill: &bill}); err != nil {
		t.Fatalf("upsert payment: %v", err)
	}
}

func TestHandleSyncMessageMirrorsRow(t *testing.T) {
	w, repo, mirror := newWorker(t)
	seedTenantWithPayment(t, repo)
	ctx := context.Background()

	msg := amqp.NewPaymentSyncMessage("t1", 2, 2024, 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle sync message: %v", err)
	}

	rows := mirror.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected one mirrored row, got %d", len(rows))
	}
	row := rows[0]
	if row.TenantName != "Alice" || row.RoomNo != "101" {
		t.Fatalf("tenant details not denormalized: %+v", row)
	}
	if row.RentStatus != core.StatusPaid || row.ElectricityBill.Cents != 18000 {
		t.Fatalf("payment fields lost: %+v", row)
	}

	pending, err := repo.GetPendingSyncPayments(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("row still pending after sync: %v, %v", pending, err)
	}
}

func TestHandleSyncMessageUnknownKeyIsDropped(t *testing.T) {
	w, _, mirror := newWorker(t)
	ctx := context.Background()

	msg := amqp.NewPaymentSyncMessage("ghost", 1, 2024, 1)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("unknown key should not requeue forever: %v", err)
	}
	if len(mirror.Rows()) != 0 {
		t.Fatal("nothing should have been mirrored")
	}
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	w, repo, mirror := newWorker(t)
	seedTenantWithPayment(t, repo)
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, "t1", 3, 2024, core.PaymentUpdate{}); err != nil {
		t.Fatalf("second payment: %v", err)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup sync check: %v", err)
	}

	if got := len(mirror.Rows()); got != 2 {
		t.Fatalf("expected 2 mirrored rows, got %d", got)
	}
	pending, _ := repo.GetPendingSyncPayments(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("backlog not drained: %v", pending)
	}
}

func TestProcessPendingRecordsIdempotentMirror(t *testing.T) {
	w, repo, mirror := newWorker(t)
	seedTenantWithPayment(t, repo)
	ctx := context.Background()

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	// Re-queue the same key with an update and process again: the mirror keeps
	// a single row for the key.
	due := core.StatusDue
	if _, err := repo.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{RentStatus: &due}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("second process pending: %v", err)
	}

	rows := mirror.Rows()
	if len(rows) != 1 {
		t.Fatalf("replay duplicated the mirrored row: %d rows", len(rows))
	}
	if rows[0].RentStatus != core.StatusDue {
		t.Fatalf("mirror not updated in place: %+v", rows[0])
	}
}
