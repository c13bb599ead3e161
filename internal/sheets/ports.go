package sheets

import (
	"context"

	"rentroll/internal/core"
)

// PaymentRow is one spreadsheet row of the mirrored ledger, denormalized with
// tenant details so the sheet is readable on its own.
type PaymentRow struct {
	TenantID          string
	TenantName        string
	RoomNo            string
	Month             int
	Year              int
	RentStatus        core.Status
	ElectricityBill   core.Money
	ElectricityStatus core.Status
	MeterReading      int64
}

// Ports for outbound adapters.
type (
	// PaymentMirror writes ledger rows to an external spreadsheet. UpsertRow
	// replaces the row for the same (tenant, month, year) key when it already
	// exists, so replayed sync messages stay idempotent.
	PaymentMirror interface {
		UpsertRow(ctx context.Context, row PaymentRow) error
	}
)
