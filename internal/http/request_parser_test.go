package http

import (
	"net/url"
	"testing"

	"rentroll/internal/core"
)

func TestParseYearParam(t *testing.T) {
	if got := ParseYearParam(url.Values{"year": {"2023"}}); got != 2023 {
		t.Fatalf("ParseYearParam = %d, want 2023", got)
	}
	// Missing or garbage values fall back to the current year.
	def := ParseYearParam(url.Values{})
	if got := ParseYearParam(url.Values{"year": {"abc"}}); got != def {
		t.Fatalf("invalid year should fall back to %d, got %d", def, got)
	}
}

func TestParseTenantForm(t *testing.T) {
	form := url.Values{
		"room_no":          {"101"},
		"address":          {"12 Fantasy Lane"},
		"entry_date":       {"2023-01-15"},
		"rent_amount":      {"5000"},
		"occupant_name":    {"Alice", "Bob", ""},
		"occupant_phone":   {"123", "456", ""},
		"occupant_id_type": {"Citizen Card", "Student Card", ""},
	}

	tn, err := ParseTenantForm(form)
	if err != nil {
		t.Fatalf("parse tenant form: %v", err)
	}
	if tn.RoomNo != "101" || tn.RentAmount.Cents != 500000 {
		t.Fatalf("fields lost: %+v", tn)
	}
	if tn.EntryDate.Year() != 2023 || tn.EntryDate.Month() != 1 || tn.EntryDate.Day() != 15 {
		t.Fatalf("entry date wrong: %v", tn.EntryDate)
	}
	// Blank trailing occupant row is dropped.
	if len(tn.Occupants) != 2 || tn.Name() != "Alice" {
		t.Fatalf("occupants wrong: %+v", tn.Occupants)
	}
}

func TestParseTenantFormRejectsBadInput(t *testing.T) {
	base := url.Values{
		"room_no":          {"101"},
		"address":          {"12 Fantasy Lane"},
		"entry_date":       {"2023-01-15"},
		"rent_amount":      {"5000"},
		"occupant_name":    {"Alice"},
		"occupant_phone":   {"123"},
		"occupant_id_type": {"Citizen Card"},
	}

	bad := func(key, val string) url.Values {
		v := url.Values{}
		for k, vs := range base {
			v[k] = vs
		}
		v.Set(key, val)
		return v
	}

	cases := []url.Values{
		bad("entry_date", "15/01/2023"),
		bad("rent_amount", "-5"),
		bad("rent_amount", ""),
		bad("room_no", ""),
		bad("occupant_name", ""),
	}
	for i, form := range cases {
		if _, err := ParseTenantForm(form); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParsePaymentUpdateForm(t *testing.T) {
	u, err := ParsePaymentUpdateForm(url.Values{
		"rent_status":      {"paid"},
		"electricity_bill": {"180"},
	})
	if err != nil {
		t.Fatalf("parse payment form: %v", err)
	}
	if u.RentStatus == nil || *u.RentStatus != core.StatusPaid {
		t.Fatalf("rent status wrong: %+v", u)
	}
	if u.ElectricityBill == nil || u.ElectricityBill.Cents != 18000 {
		t.Fatalf("bill wrong: %+v", u)
	}
	if u.ElectricityStatus != nil || u.MeterReading != nil {
		t.Fatalf("absent fields must stay nil: %+v", u)
	}
}

func TestParsePaymentUpdateFormEmptyIsEmpty(t *testing.T) {
	u, err := ParsePaymentUpdateForm(url.Values{})
	if err != nil {
		t.Fatalf("empty form: %v", err)
	}
	if !u.IsEmpty() {
		t.Fatalf("expected empty update, got %+v", u)
	}
}

func TestParsePaymentUpdateFormRejectsBadValues(t *testing.T) {
	cases := []url.Values{
		{"rent_status": {"inactive"}},
		{"electricity_status": {"unknown"}},
		{"electricity_bill": {"-3"}},
		{"meter_reading": {"-1"}},
		{"meter_reading": {"abc"}},
	}
	for i, form := range cases {
		if _, err := ParsePaymentUpdateForm(form); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
