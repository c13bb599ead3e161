// Package http provides the HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// year/month query parameters, the tenant registration form and the sparse
// payment update form.
package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"rentroll/internal/core"
)

// ParseYearParam extracts the year from query parameters, defaulting to the
// current year.
func ParseYearParam(query url.Values) int {
	year := time.Now().Year()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return year
}

// ParseMonthYearParams extracts month and year from form values, defaulting to
// the current month.
func ParseMonthYearParams(form url.Values) (month, year int) {
	now := time.Now()
	month = int(now.Month())
	year = now.Year()
	if v := strings.TrimSpace(form.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if v := strings.TrimSpace(form.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return month, year
}

// ParseTenantForm builds a tenant from the registration form. Occupants come
// in as parallel arrays; rows with an empty name are skipped so trailing blank
// form rows don't fail validation.
func ParseTenantForm(form url.Values) (core.Tenant, error) {
	var t core.Tenant

	t.RoomNo = sanitizeInput(form.Get("room_no"))
	t.Address = sanitizeInput(form.Get("address"))
	t.FacebookID = sanitizeInput(form.Get("facebook_id"))
	t.PhotoRef = sanitizeInput(form.Get("photo_ref"))

	entry := strings.TrimSpace(form.Get("entry_date"))
	parsed, err := time.Parse("2006-01-02", entry)
	if err != nil {
		return core.Tenant{}, core.ErrInvalidDay
	}
	t.EntryDate = core.Date{Time: parsed}

	cents, err := core.ParseDecimalToCents(form.Get("rent_amount"))
	if err != nil {
		return core.Tenant{}, err
	}
	t.RentAmount = core.Money{Cents: cents}

	names := form["occupant_name"]
	phones := form["occupant_phone"]
	idTypes := form["occupant_id_type"]
	idRefs := form["occupant_id_ref"]
	for i, name := range names {
		name = sanitizeInput(name)
		if name == "" {
			continue
		}
		p := core.Person{Name: name}
		if i < len(phones) {
			p.Phone = sanitizeInput(phones[i])
		}
		if i < len(idTypes) {
			p.IDType = sanitizeInput(idTypes[i])
		}
		if i < len(idRefs) {
			p.IDRef = sanitizeInput(idRefs[i])
		}
		t.Occupants = append(t.Occupants, p)
	}

	if err := t.Validate(); err != nil {
		return core.Tenant{}, err
	}
	return t, nil
}

// ParsePaymentUpdateForm builds a sparse payment update from form values.
// Absent or empty fields stay nil and leave the stored record untouched.
func ParsePaymentUpdateForm(form url.Values) (core.PaymentUpdate, error) {
	var u core.PaymentUpdate

	if v := strings.TrimSpace(form.Get("rent_status")); v != "" {
		s := core.Status(v)
		if !s.IsPayment() {
			return core.PaymentUpdate{}, core.ErrInvalidStatus
		}
		u.RentStatus = &s
	}
	if v := strings.TrimSpace(form.Get("electricity_status")); v != "" {
		s := core.Status(v)
		if !s.IsPayment() {
			return core.PaymentUpdate{}, core.ErrInvalidStatus
		}
		u.ElectricityStatus = &s
	}
	if v := strings.TrimSpace(form.Get("electricity_bill")); v != "" {
		cents, err := core.ParseNonNegativeCents(v)
		if err != nil {
			return core.PaymentUpdate{}, err
		}
		u.ElectricityBill = &core.Money{Cents: cents}
	}
	if v := strings.TrimSpace(form.Get("meter_reading")); v != "" {
		reading, err := strconv.ParseInt(v, 10, 64)
		if err != nil || reading < 0 {
			return core.PaymentUpdate{}, core.ErrInvalidAmount
		}
		u.MeterReading = &reading
	}

	return u, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
