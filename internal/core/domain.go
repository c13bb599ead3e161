package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusPaid     Status = "paid"
	StatusDue      Status = "due"
	StatusInactive Status = "inactive"
	StatusUnknown  Status = "unknown"
)

type (
	// Status classifies a rent or electricity obligation for one tenant-month.
	// Records only ever hold paid/due; inactive and unknown are produced by
	// status resolution (see reconcile.go).
	Status string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Person is one individual residing under a tenancy. IDRef is an opaque
	// reference to an uploaded ID document; upload handling happens elsewhere.
	Person struct {
		Name   string
		Phone  string
		IDType string
		IDRef  string
	}

	// Tenant is a rental unit occupancy. The tenant-level name and phone are
	// the first occupant's, exposed through Name() and Phone() so the mirror
	// can never drift.
	Tenant struct {
		ID         string
		RoomNo     string
		Address    string
		EntryDate  Date
		RentAmount Money
		FacebookID string
		PhotoRef   string
		Occupants  []Person
	}

	// PaymentRecord is the monthly rent/electricity entry for one tenant.
	// At most one record exists per (tenant, month, year).
	PaymentRecord struct {
		Month             int // 1-12
		Year              int
		RentStatus        Status
		ElectricityBill   Money
		ElectricityStatus Status
		MeterReading      int64
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyRoom       = errors.New("empty room number")
	ErrEmptyAddress    = errors.New("empty address")
	ErrNoOccupants     = errors.New("tenant needs at least one occupant")
	ErrInvalidOccupant = errors.New("occupant needs name, phone and id type")
	ErrInvalidStatus   = errors.New("invalid payment status")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsPayment reports whether s is a status a stored record may hold.
func (s Status) IsPayment() bool {
	return s == StatusPaid || s == StatusDue
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Phone) == "" || strings.TrimSpace(p.IDType) == "" {
		return ErrInvalidOccupant
	}
	return nil
}

// Name is the tenant-level display name, mirrored from the first occupant.
func (t Tenant) Name() string {
	if len(t.Occupants) == 0 {
		return ""
	}
	return t.Occupants[0].Name
}

// Phone is the tenant-level contact number, mirrored from the first occupant.
func (t Tenant) Phone() string {
	if len(t.Occupants) == 0 {
		return ""
	}
	return t.Occupants[0].Phone
}

// TotalPersons is derived, never stored independently.
func (t Tenant) TotalPersons() int {
	return len(t.Occupants)
}

func (t Tenant) Validate() error {
	if strings.TrimSpace(t.RoomNo) == "" {
		return ErrEmptyRoom
	}
	if strings.TrimSpace(t.Address) == "" {
		return ErrEmptyAddress
	}
	if err := t.EntryDate.Validate(); err != nil {
		return errors.New("invalid entry date: " + err.Error())
	}
	if err := t.RentAmount.Validate(); err != nil {
		return err
	}
	if len(t.Occupants) == 0 {
		return ErrNoOccupants
	}
	for _, p := range t.Occupants {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r PaymentRecord) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidMonth
	}
	if !r.RentStatus.IsPayment() || !r.ElectricityStatus.IsPayment() {
		return ErrInvalidStatus
	}
	if r.ElectricityBill.Cents < 0 {
		return ErrInvalidAmount
	}
	if r.MeterReading < 0 {
		return errors.New("negative meter reading")
	}
	return nil
}
