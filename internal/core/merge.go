package core

// PaymentUpdate is a sparse set of record fields. Nil fields are "not supplied"
// and leave the corresponding record field untouched on merge.
type PaymentUpdate struct {
	RentStatus        *Status
	ElectricityStatus *Status
	ElectricityBill   *Money
	MeterReading      *int64
}

// IsEmpty reports whether the update carries no fields at all.
func (u PaymentUpdate) IsEmpty() bool {
	return u.RentStatus == nil && u.ElectricityStatus == nil &&
		u.ElectricityBill == nil && u.MeterReading == nil
}

// NewRecordWithDefaults returns the record created when an update arrives for a
// key with no prior record: everything due, nothing billed, nothing metered.
func NewRecordWithDefaults(month, year int) PaymentRecord {
	return PaymentRecord{
		Month:             month,
		Year:              year,
		RentStatus:        StatusDue,
		ElectricityBill:   Money{},
		ElectricityStatus: StatusDue,
		MeterReading:      0,
	}
}

// MergeUpdate applies u to rec field-wise: only supplied fields overwrite, the
// rest keep their prior values. Applying the same update twice gives the same
// record as applying it once.
func MergeUpdate(rec PaymentRecord, u PaymentUpdate) PaymentRecord {
	if u.RentStatus != nil {
		rec.RentStatus = *u.RentStatus
	}
	if u.ElectricityStatus != nil {
		rec.ElectricityStatus = *u.ElectricityStatus
	}
	if u.ElectricityBill != nil {
		rec.ElectricityBill = *u.ElectricityBill
	}
	if u.MeterReading != nil {
		rec.MeterReading = *u.MeterReading
	}
	return rec
}

// UpsertRecord is the single definition of upsert semantics shared by every
// store: merge into the existing record when present, otherwise lay down the
// defaults first and merge on top so supplied fields always win. An empty
// update on an absent key still creates the default-due record.
func UpsertRecord(existing *PaymentRecord, month, year int, u PaymentUpdate) PaymentRecord {
	if existing != nil {
		return MergeUpdate(*existing, u)
	}
	return MergeUpdate(NewRecordWithDefaults(month, year), u)
}
