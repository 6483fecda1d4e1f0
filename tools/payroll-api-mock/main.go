// A stand-in for the payroll system. Every failEvery-th request fails so the
// worker retries and the circuit breaker can be observed locally.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"fichaje.balance/internal/ports/messaging"
	"fichaje.balance/pkg/logger"
)

const failEvery = 5

var requests atomic.Int64

func monthCloseHandler(w http.ResponseWriter, r *http.Request) {
	var event messaging.MonthClosedEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if n := requests.Add(1); n%failEvery == 0 {
		log.Warn().Int64("request", n).Str("employee_id", event.EmployeeID).Msg("Simulating payroll outage")
		http.Error(w, "Payroll unavailable", http.StatusServiceUnavailable)
		return
	}

	log.Info().
		Int64("month_close_id", event.MonthCloseID).
		Str("employee_id", event.EmployeeID).
		Int("year", event.Year).
		Int("month", event.Month).
		Float64("balance_hours", event.BalanceHours).
		Msg("Received month close")
	w.WriteHeader(http.StatusOK)
}

func main() {
	logger.Setup(true)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	http.HandleFunc("/", monthCloseHandler)
	log.Info().Str("port", port).Msg("Payroll API mock server starting")
	log.Fatal().Err(http.ListenAndServe(":"+port, nil)).Msg("Payroll API mock stopped")
}
