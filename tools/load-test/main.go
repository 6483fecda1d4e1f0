package main

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	baseURL := "http://localhost:8080/api/v1/employees"

	numEmployees := 2000
	months := 12
	totalRequests := numEmployees * months
	concurrency := 50 // keeps local port usage bounded

	fmt.Printf("Starting load test: %d employees x %d monthly balances against %s with concurrency %d\n", numEmployees, months, baseURL, concurrency)

	client := &http.Client{Timeout: 30 * time.Second}

	var successCount, failCount atomic.Int64
	var latencyNanos atomic.Int64

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(concurrency)

	startTime := time.Now()

	for i := 0; i < numEmployees; i++ {
		employeeID := fmt.Sprintf("load-test-emp-%d", i)
		for month := 1; month <= months; month++ {
			url := fmt.Sprintf("%s/%s/balance/2024/%d", baseURL, employeeID, month)
			g.Go(func() error {
				req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
				if err != nil {
					return err
				}

				started := time.Now()
				resp, err := client.Do(req)
				latencyNanos.Add(int64(time.Since(started)))
				if err != nil {
					failCount.Add(1)
					return nil
				}
				defer resp.Body.Close()

				if resp.StatusCode >= 200 && resp.StatusCode < 300 {
					successCount.Add(1)
				} else {
					failCount.Add(1)
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		fmt.Printf("Load test aborted: %v\n", err)
	}
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount.Load())
	fmt.Printf("Failed:         %d\n", failCount.Load())
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
	fmt.Printf("Mean latency:   %v\n", time.Duration(latencyNanos.Load()/int64(totalRequests)))
}
