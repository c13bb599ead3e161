// Package worker mirrors payment rows from SQLite to the external spreadsheet.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"rentroll/internal/amqp"
	"rentroll/internal/sheets"
	"rentroll/internal/storage"
)

// SyncWorker handles synchronization of payment rows from SQLite to the
// spreadsheet mirror.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	mirror    sheets.PaymentMirror
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, mirror sheets.PaymentMirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single payment sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.PaymentSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"tenant_id", msg.TenantID,
		"month", msg.Month,
		"year", msg.Year,
		"version", msg.Version)

	return w.syncPayment(ctx, msg.TenantID, msg.Month, msg.Year)
}

// ProcessPendingRecords mirrors any rows that are still marked pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncPayments(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending payments: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending payments", "count", len(pending))

	for _, p := range pending {
		if err := w.syncPayment(ctx, p.TenantID, p.Month, p.Year); err != nil {
			slog.ErrorContext(ctx, "Failed to sync payment",
				"tenant_id", p.TenantID, "month", p.Month, "year", p.Year, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck mirrors pending rows at worker startup, recovering from
// missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncPayments(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending payments for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending payments found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending payments on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.syncPayment(ctx, p.TenantID, p.Month, p.Year); err != nil {
			slog.ErrorContext(ctx, "Failed to sync payment during startup",
				"tenant_id", p.TenantID, "month", p.Month, "year", p.Year, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// syncPayment reads the latest stored row for the key and mirrors it. The
// version read alongside guards the final MarkSynced, so a write that lands
// mid-sync keeps the row pending.
func (w *SyncWorker) syncPayment(ctx context.Context, tenantID string, month, year int) error {
	rec, ok, err := w.storage.Lookup(ctx, tenantID, month, year)
	if err != nil {
		return fmt.Errorf("lookup payment: %w", err)
	}
	if !ok {
		slog.WarnContext(ctx, "Payment row vanished before sync, skipping",
			"tenant_id", tenantID, "month", month, "year", year)
		return nil
	}

	version, err := w.storage.CurrentVersion(ctx, tenantID, month, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("read payment version: %w", err)
	}

	tenant, err := w.storage.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("get tenant for sync: %w", err)
	}

	row := sheets.PaymentRow{
		TenantID:          tenantID,
		TenantName:        tenant.Name(),
		RoomNo:            tenant.RoomNo,
		Month:             rec.Month,
		Year:              rec.Year,
		RentStatus:        rec.RentStatus,
		ElectricityBill:   rec.ElectricityBill,
		ElectricityStatus: rec.ElectricityStatus,
		MeterReading:      rec.MeterReading,
	}

	if err := w.mirror.UpsertRow(ctx, row); err != nil {
		if markErr := w.storage.MarkSyncError(ctx, tenantID, month, year); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error",
				"tenant_id", tenantID, "month", month, "year", year, "error", markErr)
		}
		return fmt.Errorf("mirror payment row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, tenantID, month, year, version); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced",
			"tenant_id", tenantID, "month", month, "year", year, "error", err)
		// The mirror write itself worked.
	}

	slog.InfoContext(ctx, "Successfully synced payment",
		"tenant_id", tenantID,
		"month", month,
		"year", year,
		"version", version)

	return nil
}
