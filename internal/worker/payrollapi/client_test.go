package payrollapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fichaje.balance/internal/ports/messaging"
)

func TestRecordMonthClose(t *testing.T) {
	var got messaging.MonthClosedEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	err := client.RecordMonthClose(context.Background(), messaging.MonthClosedEvent{
		MonthCloseID: 7,
		EmployeeID:   "e1",
		Year:         2024,
		Month:        1,
		BalanceHours: -2.5,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), got.MonthCloseID)
	assert.Equal(t, "e1", got.EmployeeID)
	assert.InDelta(t, -2.5, got.BalanceHours, 1e-9)
}

func TestRecordMonthCloseRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewHTTPClient(server.URL).RecordMonthClose(context.Background(), messaging.MonthClosedEvent{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}
