package core

import (
	"sort"
	"time"
)

// ResolveStatus classifies one tenant-month cell.
//
// Months before the tenant's entry month are inactive on both axes: a tenant
// who had not moved in yet is never shown as due. The entry month itself is
// evaluated normally regardless of the entry day. When a record exists its
// statuses are taken verbatim. When the tenant was resident but no record was
// ever written, rent defaults to due while electricity stays unknown: the rent
// obligation is fixed and known, but a bill amount only exists once a meter
// reading was recorded, so it cannot be classified either way.
func ResolveStatus(t Tenant, rec *PaymentRecord, month, year int) CellStatus {
	if beforeEntryMonth(t, month, year) {
		return CellStatus{Rent: StatusInactive, Electricity: StatusInactive}
	}
	if rec != nil {
		return CellStatus{Rent: rec.RentStatus, Electricity: rec.ElectricityStatus}
	}
	return CellStatus{Rent: StatusDue, Electricity: StatusUnknown}
}

func beforeEntryMonth(t Tenant, month, year int) bool {
	if year != t.EntryDate.Year() {
		return year < t.EntryDate.Year()
	}
	return month < t.EntryDate.Month()
}

// FindRecord returns the record for (month, year) among recs, or nil.
func FindRecord(recs []PaymentRecord, month, year int) *PaymentRecord {
	for i := range recs {
		if recs[i].Month == month && recs[i].Year == year {
			return &recs[i]
		}
	}
	return nil
}

// AggregateYear computes the twelve monthly summaries for a year across all
// tenants. Rent sums use the tenant's fixed rent amount keyed by resolved
// status; inactive months contribute nothing. Electricity sums only ever count
// recorded bills: a month with no record leaves both electricity buckets
// untouched, which under-counts total exposure when bills are missing.
// Empty inputs yield twelve zero summaries.
func AggregateYear(tenants []Tenant, records map[string][]PaymentRecord, year int) []MonthlySummary {
	out := make([]MonthlySummary, 12)
	for i := range out {
		month := i + 1
		s := MonthlySummary{Month: month, Year: year}
		for _, t := range tenants {
			rec := FindRecord(records[t.ID], month, year)
			cell := ResolveStatus(t, rec, month, year)
			switch cell.Rent {
			case StatusPaid:
				s.RentPaid = s.RentPaid.Add(t.RentAmount)
			case StatusDue:
				s.RentDue = s.RentDue.Add(t.RentAmount)
			}
			if rec != nil && cell.Rent != StatusInactive {
				switch cell.Electricity {
				case StatusPaid:
					s.ElecPaid = s.ElecPaid.Add(rec.ElectricityBill)
				case StatusDue:
					s.ElecDue = s.ElecDue.Add(rec.ElectricityBill)
				}
			}
		}
		s.TotalPaid = s.RentPaid.Add(s.ElecPaid)
		s.TotalDue = s.RentDue.Add(s.ElecDue)
		out[i] = s
	}
	return out
}

// MonthlyTable resolves every tenant-month cell for the summary grid.
func MonthlyTable(tenants []Tenant, records map[string][]PaymentRecord, year int) []TenantRow {
	rows := make([]TenantRow, 0, len(tenants))
	for _, t := range tenants {
		row := TenantRow{Tenant: t}
		for m := 1; m <= 12; m++ {
			rec := FindRecord(records[t.ID], m, year)
			row.Cells[m-1] = ResolveStatus(t, rec, m, year)
		}
		rows = append(rows, row)
	}
	return rows
}

// YearOptions merges the years present in the ledger with the current year,
// deduplicated and sorted descending for the year selector.
func YearOptions(recordYears []int, now time.Time) []int {
	seen := map[int]struct{}{now.Year(): {}}
	for _, y := range recordYears {
		seen[y] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// SortRecordsDesc orders records most recent first (year desc, then month
// desc) for history display.
func SortRecordsDesc(recs []PaymentRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Year != recs[j].Year {
			return recs[i].Year > recs[j].Year
		}
		return recs[i].Month > recs[j].Month
	})
}
