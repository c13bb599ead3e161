// Package ledger defines the storage ports for tenants and payment records.
// Implementations live in internal/memory and internal/storage.
package ledger

import (
	"context"
	"errors"

	"rentroll/internal/core"
)

var (
	// ErrTenantNotFound is returned by stores when a tenant id is unknown.
	ErrTenantNotFound = errors.New("tenant not found")
)

// TenantStore persists the tenant registry.
type TenantStore interface {
	// Add stores a new tenant. The tenant already carries its assigned ID.
	Add(ctx context.Context, t core.Tenant) error
	// Get returns the tenant with the given id, or ErrTenantNotFound.
	Get(ctx context.Context, id string) (core.Tenant, error)
	// List returns all tenants in registration order.
	List(ctx context.Context) ([]core.Tenant, error)
}

// PaymentStore persists per-tenant monthly payment records. At most one record
// exists per (tenant, month, year); Upsert merges field-wise on that key.
type PaymentStore interface {
	// Lookup returns the record for the key and whether it exists.
	Lookup(ctx context.Context, tenantID string, month, year int) (core.PaymentRecord, bool, error)
	// Upsert applies a sparse update to the key, creating the default record
	// first when none exists, and returns the stored result.
	Upsert(ctx context.Context, tenantID string, month, year int, u core.PaymentUpdate) (core.PaymentRecord, error)
	// ListForTenant returns every record for one tenant, most recent first
	// (year descending, then month descending).
	ListForTenant(ctx context.Context, tenantID string) ([]core.PaymentRecord, error)
	// InitTenant creates the (empty) ledger slot for a newly registered tenant
	// so later reads distinguish "no records yet" from "unknown tenant".
	InitTenant(ctx context.Context, tenantID string) error
	// Years returns the distinct calendar years present across all records.
	Years(ctx context.Context) ([]int, error)
}
