// Package storage implements the ledger stores on SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"rentroll/internal/core"
	"rentroll/internal/ledger"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const dateLayout = "2006-01-02"

// Add implements ledger.TenantStore.
func (r *SQLiteRepository) Add(ctx context.Context, t core.Tenant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tenants (id, room_no, address, entry_date, rent_cents, facebook_id, photo_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.RoomNo, t.Address, t.EntryDate.Format(dateLayout), t.RentAmount.Cents, t.FacebookID, t.PhotoRef)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}

	for i, p := range t.Occupants {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO occupants (tenant_id, position, name, phone, id_type, id_ref)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, i, p.Name, p.Phone, p.IDType, p.IDRef)
		if err != nil {
			return fmt.Errorf("insert occupant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tenant: %w", err)
	}

	slog.InfoContext(ctx, "Tenant saved to SQLite",
		"id", t.ID,
		"room_no", t.RoomNo,
		"occupants", len(t.Occupants))

	return nil
}

// Get implements ledger.TenantStore.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, room_no, address, entry_date, rent_cents, facebook_id, photo_ref
		FROM tenants WHERE id = ?`, id)

	t, err := scanTenant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Tenant{}, ledger.ErrTenantNotFound
	}
	if err != nil {
		return core.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}

	t.Occupants, err = r.listOccupants(ctx, id)
	if err != nil {
		return core.Tenant{}, err
	}
	return t, nil
}

// List implements ledger.TenantStore.
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_no, address, entry_date, rent_cents, facebook_id, photo_ref
		FROM tenants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []core.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}

	for i := range tenants {
		tenants[i].Occupants, err = r.listOccupants(ctx, tenants[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return tenants, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (core.Tenant, error) {
	var t core.Tenant
	var entryDate string
	var rentCents int64
	if err := row.Scan(&t.ID, &t.RoomNo, &t.Address, &entryDate, &rentCents, &t.FacebookID, &t.PhotoRef); err != nil {
		return core.Tenant{}, err
	}
	parsed, err := time.Parse(dateLayout, entryDate)
	if err != nil {
		return core.Tenant{}, fmt.Errorf("parse entry date %q: %w", entryDate, err)
	}
	t.EntryDate = core.Date{Time: parsed}
	t.RentAmount = core.Money{Cents: rentCents}
	return t, nil
}

func (r *SQLiteRepository) listOccupants(ctx context.Context, tenantID string) ([]core.Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, phone, id_type, id_ref
		FROM occupants WHERE tenant_id = ? ORDER BY position`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list occupants: %w", err)
	}
	defer rows.Close()

	var people []core.Person
	for rows.Next() {
		var p core.Person
		if err := rows.Scan(&p.Name, &p.Phone, &p.IDType, &p.IDRef); err != nil {
			return nil, fmt.Errorf("scan occupant: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occupants: %w", err)
	}
	return people, nil
}

// Lookup implements ledger.PaymentStore.
func (r *SQLiteRepository) Lookup(ctx context.Context, tenantID string, month, year int) (core.PaymentRecord, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT month, year, rent_status, electricity_bill_cents, electricity_status, meter_reading
		FROM payments WHERE tenant_id = ? AND month = ? AND year = ?`,
		tenantID, month, year)

	rec, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentRecord{}, false, nil
	}
	if err != nil {
		return core.PaymentRecord{}, false, fmt.Errorf("lookup payment: %w", err)
	}
	return rec, true, nil
}

// Upsert implements ledger.PaymentStore. The read-merge-write happens inside a
// transaction so concurrent updates to the same key serialize instead of
// clobbering each other's fields. Every write bumps the version and resets the
// sync status so the worker picks the row up again.
func (r *SQLiteRepository) Upsert(ctx context.Context, tenantID string, month, year int, u core.PaymentUpdate) (core.PaymentRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT month, year, rent_status, electricity_bill_cents, electricity_status, meter_reading
		FROM payments WHERE tenant_id = ? AND month = ? AND year = ?`,
		tenantID, month, year)

	var existing *core.PaymentRecord
	rec, err := scanPayment(row)
	switch {
	case err == nil:
		existing = &rec
	case errors.Is(err, sql.ErrNoRows):
	default:
		return core.PaymentRecord{}, fmt.Errorf("read payment for upsert: %w", err)
	}

	merged := core.UpsertRecord(existing, month, year, u)

	if existing != nil {
		_, err = tx.ExecContext(ctx, `
			UPDATE payments
			SET rent_status = ?, electricity_bill_cents = ?, electricity_status = ?, meter_reading = ?,
			    version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
			WHERE tenant_id = ? AND month = ? AND year = ?`,
			string(merged.RentStatus), merged.ElectricityBill.Cents, string(merged.ElectricityStatus), merged.MeterReading,
			tenantID, month, year)
		if err != nil {
			return core.PaymentRecord{}, fmt.Errorf("update payment: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (tenant_id, month, year, rent_status, electricity_bill_cents, electricity_status, meter_reading)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tenantID, month, year,
			string(merged.RentStatus), merged.ElectricityBill.Cents, string(merged.ElectricityStatus), merged.MeterReading)
		if err != nil {
			return core.PaymentRecord{}, fmt.Errorf("insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.PaymentRecord{}, fmt.Errorf("commit payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"tenant_id", tenantID,
		"month", month,
		"year", year,
		"rent_status", merged.RentStatus,
		"electricity_status", merged.ElectricityStatus)

	return merged, nil
}

// ListForTenant implements ledger.PaymentStore.
func (r *SQLiteRepository) ListForTenant(ctx context.Context, tenantID string) ([]core.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT month, year, rent_status, electricity_bill_cents, electricity_status, meter_reading
		FROM payments WHERE tenant_id = ?
		ORDER BY year DESC, month DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var recs []core.PaymentRecord
	for rows.Next() {
		rec, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return recs, nil
}

// InitTenant implements ledger.PaymentStore. The payments table keys on the
// tenants row, so registration alone is enough; this only verifies the tenant
// exists.
func (r *SQLiteRepository) InitTenant(ctx context.Context, tenantID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tenants WHERE id = ?`, tenantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrTenantNotFound
	}
	if err != nil {
		return fmt.Errorf("init tenant ledger: %w", err)
	}
	return nil
}

// Years implements ledger.PaymentStore.
func (r *SQLiteRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT year FROM payments ORDER BY year DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payment years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}
	return years, nil
}

func scanPayment(row rowScanner) (core.PaymentRecord, error) {
	var rec core.PaymentRecord
	var rentStatus, elecStatus string
	var billCents int64
	if err := row.Scan(&rec.Month, &rec.Year, &rentStatus, &billCents, &elecStatus, &rec.MeterReading); err != nil {
		return core.PaymentRecord{}, err
	}
	rec.RentStatus = core.Status(rentStatus)
	rec.ElectricityStatus = core.Status(elecStatus)
	rec.ElectricityBill = core.Money{Cents: billCents}
	return rec, nil
}

// PendingSyncPayment identifies one payment row awaiting mirroring.
type PendingSyncPayment struct {
	TenantID  string
	Month     int
	Year      int
	Version   int64
	UpdatedAt time.Time
}

// GetPendingSyncPayments returns payments that still need to be mirrored to
// the spreadsheet, oldest first.
func (r *SQLiteRepository) GetPendingSyncPayments(ctx context.Context, limit int) ([]PendingSyncPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tenant_id, month, year, version, updated_at
		FROM payments WHERE sync_status = 'pending'
		ORDER BY updated_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync payments: %w", err)
	}
	defer rows.Close()

	var pending []PendingSyncPayment
	for rows.Next() {
		var p PendingSyncPayment
		if err := rows.Scan(&p.TenantID, &p.Month, &p.Year, &p.Version, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync payment: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync payments: %w", err)
	}
	return pending, nil
}

// MarkSynced marks a payment row as successfully mirrored, but only if the
// version has not moved since the message was produced.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, tenantID string, month, year int, version int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET sync_status = 'synced'
		WHERE tenant_id = ? AND month = ? AND year = ? AND version = ?`,
		tenantID, month, year, version)
	if err != nil {
		return fmt.Errorf("mark payment synced: %w", err)
	}

	slog.InfoContext(ctx, "Payment marked as synced",
		"tenant_id", tenantID, "month", month, "year", year, "version", version)
	return nil
}

// MarkSyncError flags a payment row whose mirroring failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, tenantID string, month, year int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payments SET sync_status = 'error'
		WHERE tenant_id = ? AND month = ? AND year = ?`,
		tenantID, month, year)
	if err != nil {
		return fmt.Errorf("mark payment sync error: %w", err)
	}

	slog.WarnContext(ctx, "Payment marked with sync error",
		"tenant_id", tenantID, "month", month, "year", year)
	return nil
}

// CurrentVersion returns the stored version for a payment key.
func (r *SQLiteRepository) CurrentVersion(ctx context.Context, tenantID string, month, year int) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx, `
		SELECT version FROM payments
		WHERE tenant_id = ? AND month = ? AND year = ?`,
		tenantID, month, year).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sql.ErrNoRows
	}
	if err != nil {
		return 0, fmt.Errorf("get payment version: %w", err)
	}
	return v, nil
}
