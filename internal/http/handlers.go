package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentroll/internal/core"
	"rentroll/internal/ledger"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	years, err := s.ledger.YearOptions(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Year options error", "error", err)
		years = []int{time.Now().Year()}
	}

	data := struct {
		Years       []int
		CurrentYear int
	}{
		Years:       years,
		CurrentYear: ParseYearParam(r.URL.Query()),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type cellView struct {
	Rent        string
	Electricity string
}

type tenantRowView struct {
	ID      string
	Name    string
	RoomNo  string
	Rent    string
	Persons int
	Cells   []cellView
}

// handleDashboard renders the per-tenant monthly status grid partial.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	year := ParseYearParam(r.URL.Query())

	rows, err := s.getTable(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard table error", "error", err, "year", year)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Failed to load dashboard</div></section>`))
		return
	}

	data := struct {
		Year   int
		Months []string
		Rows   []tenantRowView
	}{Year: year}
	for m := 1; m <= 12; m++ {
		data.Months = append(data.Months, core.MonthName(m))
	}
	for _, row := range rows {
		v := tenantRowView{
			ID:      row.Tenant.ID,
			Name:    row.Tenant.Name(),
			RoomNo:  row.Tenant.RoomNo,
			Rent:    formatRupees(row.Tenant.RentAmount.Cents),
			Persons: row.Tenant.TotalPersons(),
		}
		for _, cell := range row.Cells {
			v.Cells = append(v.Cells, cellView{
				Rent:        string(cell.Rent),
				Electricity: string(cell.Electricity),
			})
		}
		data.Rows = append(data.Rows, v)
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">` + strconv.Itoa(len(data.Rows)) + ` tenants</div></section>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "dashboard.html", "year", year)
		_, _ = w.Write([]byte(`<section id="dashboard" class="dashboard"><div class="placeholder">Failed to render dashboard</div></section>`))
	}
}

type monthSeriesView struct {
	Month     int     `json:"month"`
	Name      string  `json:"name"`
	RentPaid  float64 `json:"rentPaid"`
	RentDue   float64 `json:"rentDue"`
	ElecPaid  float64 `json:"elecPaid"`
	ElecDue   float64 `json:"elecDue"`
	TotalPaid float64 `json:"totalPaid"`
	TotalDue  float64 `json:"totalDue"`
}

// handleChartSeries returns the twelve monthly summaries for a year as JSON,
// consumed by the dashboard chart.
func (s *Server) handleChartSeries(w http.ResponseWriter, r *http.Request) {
	year := ParseYearParam(r.URL.Query())

	sums, err := s.getSeries(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Chart series error", "error", err, "year", year)
		http.Error(w, "failed to compute chart series", http.StatusInternalServerError)
		return
	}

	out := struct {
		Year   int               `json:"year"`
		Months []monthSeriesView `json:"months"`
	}{Year: year}
	for _, s := range sums {
		out.Months = append(out.Months, monthSeriesView{
			Month:     s.Month,
			Name:      core.MonthName(s.Month),
			RentPaid:  s.RentPaid.Rupees(),
			RentDue:   s.RentDue.Rupees(),
			ElecPaid:  s.ElecPaid.Rupees(),
			ElecDue:   s.ElecDue.Rupees(),
			TotalPaid: s.TotalPaid.Rupees(),
			TotalDue:  s.TotalDue.Rupees(),
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.ErrorContext(r.Context(), "Chart series encode error", "error", err, "year", year)
	}
}

// handleTenants lists tenants on GET and registers one on POST.
func (s *Server) handleTenants(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderTenantList(w, r)
	case http.MethodPost:
		s.handleRegisterTenant(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderTenantList(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	tenants, err := s.ledger.Tenants(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Tenant list error", "error", err)
		http.Error(w, "failed to load tenants", http.StatusInternalServerError)
		return
	}

	type tenantView struct {
		ID        string
		Name      string
		Phone     string
		RoomNo    string
		Address   string
		EntryDate string
		Rent      string
		Persons   int
	}
	data := struct{ Tenants []tenantView }{}
	for _, t := range tenants {
		data.Tenants = append(data.Tenants, tenantView{
			ID:        t.ID,
			Name:      t.Name(),
			Phone:     t.Phone(),
			RoomNo:    t.RoomNo,
			Address:   t.Address,
			EntryDate: t.EntryDate.Format("2006-01-02"),
			Rent:      formatRupees(t.RentAmount.Cents),
			Persons:   t.TotalPersons(),
		})
	}

	if err := s.templates.ExecuteTemplate(w, "tenants.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Tenant list template error", "error", err, "template", "tenants.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleRegisterTenant(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	t, err := ParseTenantForm(r.Form)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid tenant data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	registered, err := s.ledger.RegisterTenant(r.Context(), t)
	if err != nil {
		slog.ErrorContext(r.Context(), "Tenant registration error", "error", err, "room_no", t.RoomNo)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to register tenant</div>`))
		return
	}

	// A new tenant changes every year's grid.
	s.tableCache.Clear()
	s.seriesCache.Clear()

	w.Header().Set("HX-Trigger", `{"tenant:registered": {"id": "`+registered.ID+`"}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Tenant registered: ` +
		template.HTMLEscapeString(registered.Name()) +
		` (room ` + template.HTMLEscapeString(registered.RoomNo) + `)</div>`))
}

// handleRecordPayment applies a sparse payment update for one tenant-month.
func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	tenantID := strings.TrimSpace(r.Form.Get("tenant_id"))
	if tenantID == "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Missing tenant</div>`))
		return
	}
	month, year := ParseMonthYearParams(r.Form)

	u, err := ParsePaymentUpdateForm(r.Form)
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid payment data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}

	rec, err := s.ledger.RecordPaymentUpdate(r.Context(), tenantID, month, year, u)
	switch {
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrInvalidStatus):
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid payment data: ` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	case errors.Is(err, ledger.ErrTenantNotFound):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Tenant not found</div>`))
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Payment update error", "error", err,
			"tenant_id", tenantID, "month", month, "year", year)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Failed to record payment</div>`))
		return
	}

	// A payment write only invalidates its own year.
	s.invalidateYear(year)

	w.Header().Set("HX-Trigger", `{"payment:recorded": {"year": `+strconv.Itoa(year)+`, "month": `+strconv.Itoa(month)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Recorded ` +
		template.HTMLEscapeString(core.MonthName(rec.Month)) + ` ` + strconv.Itoa(rec.Year) +
		`: rent ` + template.HTMLEscapeString(string(rec.RentStatus)) +
		`, electricity ` + template.HTMLEscapeString(string(rec.ElectricityStatus)) + `</div>`))
}

// handleTenantDetails renders the tenant history partial.
func (s *Server) handleTenantDetails(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Missing tenant id</div>`))
		return
	}

	tenant, recs, err := s.ledger.TenantHistory(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "Tenant history error", "error", err, "tenant_id", id)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Tenant not found</div>`))
		return
	}

	type recordView struct {
		Period            string
		RentStatus        string
		ElectricityBill   string
		ElectricityStatus string
		MeterReading      int64
	}
	type occupantView struct {
		Name   string
		Phone  string
		IDType string
	}
	data := struct {
		ID        string
		Name      string
		Phone     string
		RoomNo    string
		Address   string
		EntryDate string
		Rent      string
		Occupants []occupantView
		Records   []recordView
	}{
		ID:        tenant.ID,
		Name:      tenant.Name(),
		Phone:     tenant.Phone(),
		RoomNo:    tenant.RoomNo,
		Address:   tenant.Address,
		EntryDate: tenant.EntryDate.Format("2006-01-02"),
		Rent:      formatRupees(tenant.RentAmount.Cents),
	}
	for _, p := range tenant.Occupants {
		data.Occupants = append(data.Occupants, occupantView{Name: p.Name, Phone: p.Phone, IDType: p.IDType})
	}
	for _, rec := range recs {
		data.Records = append(data.Records, recordView{
			Period:            fmt.Sprintf("%s %d", core.MonthName(rec.Month), rec.Year),
			RentStatus:        string(rec.RentStatus),
			ElectricityBill:   formatRupees(rec.ElectricityBill.Cents),
			ElectricityStatus: string(rec.ElectricityStatus),
			MeterReading:      rec.MeterReading,
		})
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="placeholder">` + template.HTMLEscapeString(data.Name) + `</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "tenant_details.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Tenant details template error", "error", err, "template", "tenant_details.html")
		_, _ = w.Write([]byte(`<div class="error">Failed to render tenant details</div>`))
	}
}

func (s *Server) yearKey(year int) string {
	return strconv.Itoa(year)
}

func (s *Server) invalidateYear(year int) {
	s.tableCache.Delete(s.yearKey(year))
	s.seriesCache.Delete(s.yearKey(year))
}

func (s *Server) getTable(ctx context.Context, year int) ([]core.TenantRow, error) {
	key := s.yearKey(year)

	if rows, found := s.tableCache.Get(key); found {
		slog.DebugContext(ctx, "Table cache hit", "year", year)
		return rows, nil
	}

	rows, err := s.ledger.MonthlyTable(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("monthly table (year=%d): %w", year, err)
	}

	s.tableCache.Set(key, rows)
	return rows, nil
}

func (s *Server) getSeries(ctx context.Context, year int) ([]core.MonthlySummary, error) {
	key := s.yearKey(year)

	if sums, found := s.seriesCache.Get(key); found {
		slog.DebugContext(ctx, "Series cache hit", "year", year)
		return sums, nil
	}

	sums, err := s.ledger.ChartSeries(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("chart series (year=%d): %w", year, err)
	}

	s.seriesCache.Set(key, sums)
	return sums, nil
}

func formatRupees(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	whole := cents / 100
	rem := cents % 100
	s := strconv.FormatInt(whole, 10) + "." + fmt.Sprintf("%02d", rem)
	if neg {
		return "-₹" + s
	}
	return "₹" + s
}
