// Package memory provides in-memory implementations of the ledger stores,
// used for local development and tests.
package memory

import (
	"context"
	"sync"

	"rentroll/internal/core"
	"rentroll/internal/ledger"
)

// Store keeps tenants and payment records in process memory. All methods are
// safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	tenants []core.Tenant
	byID    map[string]int
	records map[string][]core.PaymentRecord
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[string]int),
		records: make(map[string][]core.PaymentRecord),
	}
}

func (s *Store) Add(_ context.Context, t core.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.ID] = len(s.tenants)
	s.tenants = append(s.tenants, t)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (core.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return core.Tenant{}, ledger.ErrTenantNotFound
	}
	return s.tenants[i], nil
}

func (s *Store) List(_ context.Context) ([]core.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Tenant, len(s.tenants))
	copy(out, s.tenants)
	return out, nil
}

func (s *Store) Lookup(_ context.Context, tenantID string, month, year int) (core.PaymentRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec := core.FindRecord(s.records[tenantID], month, year); rec != nil {
		return *rec, true, nil
	}
	return core.PaymentRecord{}, false, nil
}

func (s *Store) Upsert(_ context.Context, tenantID string, month, year int, u core.PaymentUpdate) (core.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[tenantID]
	existing := core.FindRecord(recs, month, year)
	merged := core.UpsertRecord(existing, month, year, u)
	if existing != nil {
		*existing = merged
	} else {
		s.records[tenantID] = append(recs, merged)
	}
	return merged, nil
}

func (s *Store) ListForTenant(_ context.Context, tenantID string) ([]core.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[tenantID]
	out := make([]core.PaymentRecord, len(recs))
	copy(out, recs)
	core.SortRecordsDesc(out)
	return out, nil
}

func (s *Store) InitTenant(_ context.Context, tenantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[tenantID]; !ok {
		s.records[tenantID] = nil
	}
	return nil
}

func (s *Store) Years(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int]struct{})
	var out []int
	for _, recs := range s.records {
		for _, r := range recs {
			if _, ok := seen[r.Year]; !ok {
				seen[r.Year] = struct{}{}
				out = append(out, r.Year)
			}
		}
	}
	return out, nil
}
