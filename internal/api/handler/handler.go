package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	core "fichaje.balance/internal/core"
	"fichaje.balance/internal/core/hours"
	"fichaje.balance/internal/core/model"
	"fichaje.balance/internal/export"
	"fichaje.balance/internal/ports/repository"
)

// ReportService is the part of the core service the handlers use.
type ReportService interface {
	MonthlyBalance(ctx context.Context, employeeID string, year int, month time.Month) (model.MonthlyBalance, error)
	CompanyBalances(ctx context.Context, companyID, departmentID string, year int, month time.Month) ([]model.MonthlyBalance, error)
	CloseMonth(ctx context.Context, employeeID string, year int, month time.Month, now time.Time) (*model.MonthClose, error)
	WorkedToday(ctx context.Context, employeeID string, now time.Time) (float64, error)
	ClientHours(ctx context.Context, companyID, clientName string, now time.Time) (core.ClientReport, error)
	HoursSummary(ctx context.Context, companyID, departmentID string, from, to civil.Date, now time.Time) ([]core.EmployeeHours, error)
	VacationBalances(ctx context.Context, companyID string) ([]core.VacationBalance, error)
}

type ReportHandler struct {
	Service ReportService
	// Now is the clock used for live reports. Nil means time.Now.
	Now func() time.Time
}

func (h *ReportHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// DayResponse is a day balance with its formatted values.
type DayResponse struct {
	Date             string  `json:"date"`
	Weekday          string  `json:"weekday"`
	ActualHours      float64 `json:"actualHours"`
	TheoreticalHours float64 `json:"theoreticalHours"`
	BalanceHours     float64 `json:"balanceHours"`
	Balance          string  `json:"balance"`
}

type BalanceResponse struct {
	EmployeeID       string        `json:"employeeId"`
	EmployeeName     string        `json:"employeeName,omitempty"`
	Year             int           `json:"year"`
	Month            int           `json:"month"`
	ActualHours      float64       `json:"actualHours"`
	TheoreticalHours float64       `json:"theoreticalHours"`
	BalanceHours     float64       `json:"balanceHours"`
	Actual           string        `json:"actual"`
	Theoretical      string        `json:"theoretical"`
	Balance          string        `json:"balance"`
	Days             []DayResponse `json:"days"`
}

type WorkedTodayResponse struct {
	EmployeeID string  `json:"employeeId"`
	Hours      float64 `json:"hours"`
	Formatted  string  `json:"formatted"`
}

type MonthCloseResponse struct {
	MonthCloseID int64   `json:"monthCloseId"`
	BalanceHours float64 `json:"balanceHours"`
	Balance      string  `json:"balance"`
	Message      string  `json:"message"`
}

func toBalanceResponse(mb model.MonthlyBalance) BalanceResponse {
	days := make([]DayResponse, 0, len(mb.Days))
	for _, d := range mb.Days {
		days = append(days, DayResponse{
			Date:             d.Date.String(),
			Weekday:          model.WeekdayOf(d.Date).String(),
			ActualHours:      d.ActualHours,
			TheoreticalHours: d.TheoreticalHours,
			BalanceHours:     d.BalanceHours,
			Balance:          hours.FormatBalance(d.BalanceHours),
		})
	}
	return BalanceResponse{
		EmployeeID:       mb.SubjectID,
		EmployeeName:     mb.SubjectName,
		Year:             mb.Year,
		Month:            int(mb.Month),
		ActualHours:      mb.ActualHours,
		TheoreticalHours: mb.TheoreticalHours,
		BalanceHours:     mb.BalanceHours,
		Actual:           hours.FormatHours(mb.ActualHours),
		Theoretical:      hours.FormatHours(mb.TheoreticalHours),
		Balance:          hours.FormatBalance(mb.BalanceHours),
		Days:             days,
	}
}

func (h *ReportHandler) MonthlyBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, month, ok := parsePeriod(w, vars)
	if !ok {
		return
	}

	mb, err := h.Service.MonthlyBalance(r.Context(), vars["employeeId"], year, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceResponse(mb))
}

func (h *ReportHandler) CloseMonth(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	year, month, ok := parsePeriod(w, vars)
	if !ok {
		return
	}

	mc, err := h.Service.CloseMonth(r.Context(), vars["employeeId"], year, month, h.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, MonthCloseResponse{
		MonthCloseID: mc.ID,
		BalanceHours: mc.BalanceHours,
		Balance:      hours.FormatBalance(mc.BalanceHours),
		Message:      "Month closed; payroll and e-mail delivery queued for asynchronous processing.",
	})
}

func (h *ReportHandler) WorkedToday(w http.ResponseWriter, r *http.Request) {
	employeeID := mux.Vars(r)["employeeId"]

	total, err := h.Service.WorkedToday(r.Context(), employeeID, h.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, WorkedTodayResponse{
		EmployeeID: employeeID,
		Hours:      total,
		Formatted:  hours.FormatHours(total),
	})
}

// CompanyBalances answers with JSON, or with an XLSX workbook when asked
// for one through ?format=xlsx or the Accept header.
func (h *ReportHandler) CompanyBalances(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID, ok := parseUUID(w, "companyId", vars["companyId"])
	if !ok {
		return
	}
	departmentID, ok := optionalUUID(w, "departmentId", r.URL.Query().Get("departmentId"))
	if !ok {
		return
	}
	year, month, ok := parsePeriod(w, vars)
	if !ok {
		return
	}

	balances, err := h.Service.CompanyBalances(r.Context(), companyID, departmentID, year, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	if wantsXLSX(r) {
		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="saldos-`+strconv.Itoa(year)+"-"+strconv.Itoa(int(month))+`.xlsx"`)
		if err := export.WriteMonthlyBalances(w, balances); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write XLSX export")
		}
		return
	}

	out := make([]BalanceResponse, 0, len(balances))
	for _, mb := range balances {
		out = append(out, toBalanceResponse(mb))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportHandler) ClientHours(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	companyID, ok := parseUUID(w, "companyId", vars["companyId"])
	if !ok {
		return
	}
	clientName := strings.TrimSpace(vars["clientName"])
	if clientName == "" {
		writeMessage(w, http.StatusBadRequest, "clientName is required")
		return
	}

	report, err := h.Service.ClientHours(r.Context(), companyID, clientName, h.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) HoursSummary(w http.ResponseWriter, r *http.Request) {
	companyID, ok := parseUUID(w, "companyId", mux.Vars(r)["companyId"])
	if !ok {
		return
	}
	q := r.URL.Query()
	departmentID, ok := optionalUUID(w, "departmentId", q.Get("departmentId"))
	if !ok {
		return
	}

	from, err := civil.ParseDate(q.Get("from"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "from must be a YYYY-MM-DD date")
		return
	}
	to, err := civil.ParseDate(q.Get("to"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "to must be a YYYY-MM-DD date")
		return
	}

	rows, err := h.Service.HoursSummary(r.Context(), companyID, departmentID, from, to, h.now())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (h *ReportHandler) VacationBalances(w http.ResponseWriter, r *http.Request) {
	companyID, ok := parseUUID(w, "companyId", mux.Vars(r)["companyId"])
	if !ok {
		return
	}

	balances, err := h.Service.VacationBalances(r.Context(), companyID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, balances)
}

// NotFound answers unknown paths with a JSON error.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed answers a known path requested with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

func parsePeriod(w http.ResponseWriter, vars map[string]string) (int, time.Month, bool) {
	year, err := strconv.Atoi(vars["year"])
	if err != nil || year < 1 {
		writeMessage(w, http.StatusBadRequest, "year must be a positive number")
		return 0, 0, false
	}
	month, err := strconv.Atoi(vars["month"])
	if err != nil || month < 1 || month > 12 {
		writeMessage(w, http.StatusBadRequest, "month must be between 1 and 12")
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func parseUUID(w http.ResponseWriter, name, value string) (string, bool) {
	id, err := uuid.Parse(value)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, name+" must be a UUID")
		return "", false
	}
	return id.String(), true
}

func optionalUUID(w http.ResponseWriter, name, value string) (string, bool) {
	if value == "" {
		return "", true
	}
	return parseUUID(w, name, value)
}

func wantsXLSX(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), export.ContentType)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and hidden from the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrPeriodOpen):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, context.Canceled):
		writeMessage(w, http.StatusServiceUnavailable, "request canceled")
	default:
		log.Ctx(ctx).Error().Err(err).Msg("Service error")
		writeMessage(w, http.StatusInternalServerError, "Service error processing request")
	}
}
