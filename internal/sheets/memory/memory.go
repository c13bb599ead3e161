// Package memory provides an in-process payment mirror for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	ports "rentroll/internal/sheets"
)

type Mirror struct {
	mu    sync.Mutex
	rows  []ports.PaymentRow
	byKey map[string]int
}

var _ ports.PaymentMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{byKey: make(map[string]int)}
}

// UpsertRow replaces the row with the same (tenant, month, year) key or
// appends a new one.
func (m *Mirror) UpsertRow(_ context.Context, row ports.PaymentRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s|%04d-%02d", row.TenantID, row.Year, row.Month)
	if i, ok := m.byKey[key]; ok {
		m.rows[i] = row
		return nil
	}
	m.byKey[key] = len(m.rows)
	m.rows = append(m.rows, row)
	return nil
}

// Rows returns a snapshot of the mirrored rows.
func (m *Mirror) Rows() []ports.PaymentRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.PaymentRow, len(m.rows))
	copy(out, m.rows)
	return out
}
