package memory

import (
	"context"
	"testing"

	"rentroll/internal/core"
	"rentroll/internal/ledger"
)

func paid() *core.Status { s := core.StatusPaid; return &s }

func TestTenantRoundTrip(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tn := core.Tenant{
		ID:         "t1",
		RoomNo:     "101",
		Address:    "12 Fantasy Lane",
		EntryDate:  core.NewDate(2023, 1, 15),
		RentAmount: core.Money{Cents: 500000},
		Occupants:  []core.Person{{Name: "Alice", Phone: "123", IDType: "Citizen Card"}},
	}
	if err := s.Add(ctx, tn); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := s.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RoomNo != "101" || got.Name() != "Alice" {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.Get(ctx, "nope"); err != ledger.ErrTenantNotFound {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}

	all, err := s.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("list: %v, %d tenants", err, len(all))
	}
}

func TestUpsertCreatesAndMerges(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	rec, err := s.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{RentStatus: paid()})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if rec.RentStatus != core.StatusPaid || rec.ElectricityStatus != core.StatusDue {
		t.Fatalf("defaults not applied: %+v", rec)
	}

	bill := core.Money{Cents: 18000}
	rec, err = s.Upsert(ctx, "t1", 2, 2024, core.PaymentUpdate{ElectricityBill: &bill})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if rec.RentStatus != core.StatusPaid {
		t.Fatalf("merge lost earlier field: %+v", rec)
	}
	if rec.ElectricityBill.Cents != 18000 {
		t.Fatalf("bill not stored: %+v", rec)
	}

	got, ok, err := s.Lookup(ctx, "t1", 2, 2024)
	if err != nil || !ok {
		t.Fatalf("lookup: %v, ok=%v", err, ok)
	}
	if got != rec {
		t.Fatalf("lookup mismatch: %+v vs %+v", got, rec)
	}

	if _, ok, _ := s.Lookup(ctx, "t1", 3, 2024); ok {
		t.Fatal("lookup of absent month should report not found")
	}
}

func TestListForTenantIsolatesCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if _, err := s.Upsert(ctx, "t1", 1, 2024, core.PaymentUpdate{}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	recs, err := s.ListForTenant(ctx, "t1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("list: %v, %d records", err, len(recs))
	}
	recs[0].RentStatus = core.StatusPaid

	again, _ := s.ListForTenant(ctx, "t1")
	if again[0].RentStatus != core.StatusDue {
		t.Fatal("caller mutation leaked into store")
	}
}

func TestYears(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.InitTenant(ctx, "t1"); err != nil {
		t.Fatalf("init: %v", err)
	}
	years, err := s.Years(ctx)
	if err != nil || len(years) != 0 {
		t.Fatalf("empty ledger should have no years: %v, %v", years, err)
	}

	s.Upsert(ctx, "t1", 12, 2023, core.PaymentUpdate{})
	s.Upsert(ctx, "t1", 1, 2024, core.PaymentUpdate{})
	s.Upsert(ctx, "t2", 6, 2024, core.PaymentUpdate{})

	years, err = s.Years(ctx)
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	seen := map[int]bool{}
	for _, y := range years {
		seen[y] = true
	}
	if len(years) != 2 || !seen[2023] || !seen[2024] {
		t.Fatalf("years = %v, want {2023, 2024}", years)
	}
}
