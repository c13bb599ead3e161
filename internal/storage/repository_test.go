package storage

import (
	"context"
	"path/filepath"
	"testing"

	"rentroll/internal/core"
	"rentroll/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "rentroll.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTenant(id string) core.Tenant {
	return core.Tenant{
		ID:         id,
		RoomNo:     "101",
		Address:    "12 Fantasy Lane",
		EntryDate:  core.NewDate(2023, 1, 15),
		RentAmount: core.Money{Cents: 500000},
		Occupants: []core.Person{
			{Name: "Alice", Phone: "123-456", IDType: "Citizen Card", IDRef: "doc-1"},
			{Name: "Bob", Phone: "789-012", IDType: "Student Card"},
		},
	}
}

func paid() *core.Status { s := core.StatusPaid; return &s }

func TestTenantPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, testTenant("t1")); err != nil {
		t.Fatalf("add tenant: %v", err)
	}

	got, err := repo.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if got.RoomNo != "101" || got.RentAmount.Cents != 500000 {
		t.Fatalf("tenant fields lost: %+v", got)
	}
	if got.EntryDate.Year() != 2023 || got.EntryDate.Month() != 1 || got.EntryDate.Day() != 15 {
		t.Fatalf("entry date lost: %v", got.EntryDate)
	}
	if len(got.Occupants) != 2 || got.Name() != "Alice" || got.Occupants[1].Name != "Bob" {
		t.Fatalf("occupants lost or reordered: %+v", got.Occupants)
	}

	if _, err := repo.Get(ctx, "missing"); err != ledger.ErrTenantNotFound {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list tenants: %v, %d tenants", err, len(all))
	}
}

func TestPaymentUpsertMergesOnKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, testTenant("t1")); err != nil {
		t.Fatalf("add tenant: %v", err)
	}

	rec, err := repo.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{RentStatus: paid()})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.RentStatus != core.StatusPaid || rec.ElectricityStatus != core.StatusDue {
		t.Fatalf("defaults not applied: %+v", rec)
	}

	bill := core.Money{Cents: 18000}
	meter := int64(1520)
	rec, err = repo.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{ElectricityBill: &bill, MeterReading: &meter})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if rec.RentStatus != core.StatusPaid {
		t.Fatalf("merge lost earlier rent status: %+v", rec)
	}
	if rec.ElectricityBill.Cents != 18000 || rec.MeterReading != 1520 {
		t.Fatalf("merge lost new fields: %+v", rec)
	}

	got, ok, err := repo.Lookup(ctx, "t1", 2, 2024)
	if err != nil || !ok {
		t.Fatalf("lookup: %v, ok=%v", err, ok)
	}
	if got != rec {
		t.Fatalf("lookup mismatch: %+v vs %+v", got, rec)
	}

	recs, err := repo.ListForTenant(ctx, "t1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("list for tenant: %v, %d records", err, len(recs))
	}
}

func TestPaymentVersionAndSyncState(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, testTenant("t1")); err != nil {
		t.Fatalf("add tenant: %v", err)
	}
	if _, err := repo.Upsert(ctx, "t1", 3, 2024, core.PaymentUpdate{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	v, err := repo.CurrentVersion(ctx, "t1", 3, 2024)
	if err != nil || v != 1 {
		t.Fatalf("fresh row version = %d, %v; want 1", v, err)
	}

	pending, err := repo.GetPendingSyncPayments(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v; want one row", pending, err)
	}
	if pending[0].TenantID != "t1" || pending[0].Version != 1 {
		t.Fatalf("pending row mismatch: %+v", pending[0])
	}

	if err := repo.MarkSynced(ctx, "t1", 3, 2024, 1); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = repo.GetPendingSyncPayments(ctx, 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("synced row still pending: %v, %v", pending, err)
	}

	// A later write bumps the version and re-queues the row.
	if _, err := repo.Upsert(ctx, "t1", 3, 2024, core.PaymentUpdate{RentStatus: paid()}); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	v, err = repo.CurrentVersion(ctx, "t1", 3, 2024)
	if err != nil || v != 2 {
		t.Fatalf("version after update = %d, %v; want 2", v, err)
	}
	pending, _ = repo.GetPendingSyncPayments(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("updated row should be pending again, got %v", pending)
	}

	// A stale MarkSynced (old version) must not hide the newer write.
	if err := repo.MarkSynced(ctx, "t1", 3, 2024, 1); err != nil {
		t.Fatalf("stale mark synced: %v", err)
	}
	pending, _ = repo.GetPendingSyncPayments(ctx, 10)
	if len(pending) != 1 {
		t.Fatal("stale ack cleared a newer pending row")
	}

	if err := repo.MarkSyncError(ctx, "t1", 3, 2024); err != nil {
		t.Fatalf("mark sync error: %v", err)
	}
	pending, _ = repo.GetPendingSyncPayments(ctx, 10)
	if len(pending) != 0 {
		t.Fatal("errored row should leave the pending queue")
	}
}

func TestYearsDistinctDescending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Add(ctx, testTenant("t1")); err != nil {
		t.Fatalf("add tenant: %v", err)
	}
	for _, key := range [][2]int{{12, 2023}, {1, 2024}, {2, 2024}} {
		if _, err := repo.Upsert(ctx, "t1", key[0], key[1], core.PaymentUpdate{}); err != nil {
			t.Fatalf("upsert %v: %v", key, err)
		}
	}

	years, err := repo.Years(ctx)
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	want := []int{2024, 2023}
	if len(years) != len(want) || years[0] != want[0] || years[1] != want[1] {
		t.Fatalf("years = %v, want %v", years, want)
	}
}

func TestInitTenantRequiresRegistration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InitTenant(ctx, "ghost"); err != ledger.ErrTenantNotFound {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	if err := repo.Add(ctx, testTenant("t1")); err != nil {
		t.Fatalf("add tenant: %v", err)
	}
	if err := repo.InitTenant(ctx, "t1"); err != nil {
		t.Fatalf("init tenant: %v", err)
	}
}
