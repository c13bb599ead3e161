package core

// MonthlySummary holds the aggregate paid/due totals across all tenants for
// one calendar month in a chosen year.
type MonthlySummary struct {
	Month     int // 1-12
	Year      int
	RentPaid  Money
	RentDue   Money
	ElecPaid  Money
	ElecDue   Money
	TotalPaid Money
	TotalDue  Money
}

// CellStatus is the resolved classification for one tenant-month cell of the
// summary grid.
type CellStatus struct {
	Rent        Status
	Electricity Status
}

// TenantRow pairs a tenant with its twelve resolved cells for a year.
type TenantRow struct {
	Tenant Tenant
	Cells  [12]CellStatus // index 0 = January
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthName returns the short English month name, or "" out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}
