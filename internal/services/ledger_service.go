// Package services orchestrates the tenant registry and payment ledger over
// the storage ports and the sync queue.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rentroll/internal/core"
	"rentroll/internal/ledger"
)

// SyncPublisher queues a payment key for mirroring. *amqp.Client implements it.
type SyncPublisher interface {
	PublishPaymentSync(ctx context.Context, tenantID string, month, year int, version int64) error
}

// versionReader is implemented by stores that track per-row versions.
type versionReader interface {
	CurrentVersion(ctx context.Context, tenantID string, month, year int) (int64, error)
}

// LedgerService orchestrates tenant and payment operations across the stores
// and AMQP.
type LedgerService struct {
	tenants   ledger.TenantStore
	payments  ledger.PaymentStore
	publisher SyncPublisher
	closers   []func() error
}

func NewLedgerService(tenants ledger.TenantStore, payments ledger.PaymentStore, publisher SyncPublisher) *LedgerService {
	return &LedgerService{
		tenants:   tenants,
		payments:  payments,
		publisher: publisher,
	}
}

// AddCloser registers a resource to close with the service.
func (s *LedgerService) AddCloser(fn func() error) {
	s.closers = append(s.closers, fn)
}

// RegisterTenant validates the tenant, assigns an id and initializes its
// ledger slot.
func (s *LedgerService) RegisterTenant(ctx context.Context, t core.Tenant) (core.Tenant, error) {
	if err := t.Validate(); err != nil {
		return core.Tenant{}, fmt.Errorf("validate tenant: %w", err)
	}

	t.ID = uuid.NewString()
	if err := s.tenants.Add(ctx, t); err != nil {
		return core.Tenant{}, fmt.Errorf("add tenant: %w", err)
	}
	if err := s.payments.InitTenant(ctx, t.ID); err != nil {
		return core.Tenant{}, fmt.Errorf("init tenant ledger: %w", err)
	}

	slog.InfoContext(ctx, "Tenant registered",
		"id", t.ID,
		"room_no", t.RoomNo,
		"occupants", t.TotalPersons())

	return t, nil
}

// RecordPaymentUpdate applies a sparse update to one tenant-month and queues
// the result for mirroring. Supplied statuses must be paid or due.
func (s *LedgerService) RecordPaymentUpdate(ctx context.Context, tenantID string, month, year int, u core.PaymentUpdate) (core.PaymentRecord, error) {
	if month < 1 || month > 12 {
		return core.PaymentRecord{}, core.ErrInvalidMonth
	}
	if u.RentStatus != nil && !u.RentStatus.IsPayment() {
		return core.PaymentRecord{}, core.ErrInvalidStatus
	}
	if u.ElectricityStatus != nil && !u.ElectricityStatus.IsPayment() {
		return core.PaymentRecord{}, core.ErrInvalidStatus
	}
	if _, err := s.tenants.Get(ctx, tenantID); err != nil {
		return core.PaymentRecord{}, fmt.Errorf("resolve tenant: %w", err)
	}

	rec, err := s.payments.Upsert(ctx, tenantID, month, year, u)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("upsert payment: %w", err)
	}

	if err := s.publishSyncMessage(ctx, tenantID, month, year); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"tenant_id", tenantID, "month", month, "year", year, "error", err)
		// The update is saved locally; the catch-up loop will mirror it.
	}

	return rec, nil
}

// Tenants returns the registry in registration order.
func (s *LedgerService) Tenants(ctx context.Context) ([]core.Tenant, error) {
	return s.tenants.List(ctx)
}

// TenantHistory returns the tenant and its payment records, most recent first.
func (s *LedgerService) TenantHistory(ctx context.Context, tenantID string) (core.Tenant, []core.PaymentRecord, error) {
	t, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return core.Tenant{}, nil, fmt.Errorf("get tenant: %w", err)
	}
	recs, err := s.payments.ListForTenant(ctx, tenantID)
	if err != nil {
		return core.Tenant{}, nil, fmt.Errorf("list payments: %w", err)
	}
	core.SortRecordsDesc(recs)
	return t, recs, nil
}

// MonthlyTable resolves the per-tenant status grid for a year.
func (s *LedgerService) MonthlyTable(ctx context.Context, year int) ([]core.TenantRow, error) {
	tenants, records, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	return core.MonthlyTable(tenants, records, year), nil
}

// ChartSeries computes the twelve monthly summaries for a year.
func (s *LedgerService) ChartSeries(ctx context.Context, year int) ([]core.MonthlySummary, error) {
	tenants, records, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	return core.AggregateYear(tenants, records, year), nil
}

// YearOptions returns the selectable years, current year included, descending.
func (s *LedgerService) YearOptions(ctx context.Context) ([]int, error) {
	years, err := s.payments.Years(ctx)
	if err != nil {
		return nil, fmt.Errorf("list years: %w", err)
	}
	return core.YearOptions(years, time.Now()), nil
}

func (s *LedgerService) loadLedger(ctx context.Context) ([]core.Tenant, map[string][]core.PaymentRecord, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list tenants: %w", err)
	}
	records := make(map[string][]core.PaymentRecord, len(tenants))
	for _, t := range tenants {
		recs, err := s.payments.ListForTenant(ctx, t.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list payments for tenant %s: %w", t.ID, err)
		}
		records[t.ID] = recs
	}
	return tenants, records, nil
}

func (s *LedgerService) publishSyncMessage(ctx context.Context, tenantID string, month, year int) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping sync message")
		return nil
	}

	version := int64(1)
	if vr, ok := s.payments.(versionReader); ok {
		if v, err := vr.CurrentVersion(ctx, tenantID, month, year); err == nil {
			version = v
		}
	}

	return s.publisher.PublishPaymentSync(ctx, tenantID, month, year, version)
}

// Close closes every registered resource.
func (s *LedgerService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
