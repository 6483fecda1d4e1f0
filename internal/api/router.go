package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"fichaje.balance/internal/api/handler"
	"fichaje.balance/pkg/logger"
	"fichaje.balance/pkg/metrics"
)

// NewRouter sets up the gorilla/mux router and defines all API routes.
// A nil metrics manager disables /metrics.
func NewRouter(h *handler.ReportHandler, m *metrics.Manager) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestContext, observe(m))
	r.NotFoundHandler = http.HandlerFunc(handler.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handler.MethodNotAllowed)

	// Routes are registered flat on the root router. A non-matching
	// subrouter tried after a method mismatch resets it to a 404.
	const v1 = "/api/v1"
	const company = v1 + "/companies/{companyId}"

	r.HandleFunc(company+"/balances/{year:[0-9]+}/{month:[0-9]+}", h.CompanyBalances).Methods(http.MethodGet)
	r.HandleFunc(company+"/clients/{clientName}/hours", h.ClientHours).Methods(http.MethodGet)
	r.HandleFunc(company+"/reports/hours", h.HoursSummary).Methods(http.MethodGet)
	r.HandleFunc(company+"/vacation-balances", h.VacationBalances).Methods(http.MethodGet)

	r.HandleFunc(v1+"/employees/{employeeId}/balance/{year:[0-9]+}/{month:[0-9]+}", h.MonthlyBalance).Methods(http.MethodGet)
	r.HandleFunc(v1+"/employees/{employeeId}/balance/{year:[0-9]+}/{month:[0-9]+}/close", h.CloseMonth).Methods(http.MethodPost)
	r.HandleFunc(v1+"/employees/{employeeId}/worked-today", h.WorkedToday).Methods(http.MethodGet)

	r.HandleFunc(v1+"/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Service is operational."))
	}).Methods(http.MethodGet)

	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	return r
}

// requestContext attaches a request id and a trace-aware logger to the
// request context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := logger.EnrichContextWithLogger(r.Context())
		l := log.Ctx(ctx).With().Str("request_id", requestID).Logger()
		next.ServeHTTP(w, r.WithContext(l.WithContext(ctx)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// observe counts requests by route template so path parameters don't blow
// up label cardinality.
func observe(m *metrics.Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			m.ObserveRequest(route, strconv.Itoa(rec.status))
		})
	}
}
