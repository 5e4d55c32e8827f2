package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	Therapists int
}

// BookingMetrics tallies HTTP outcomes across workers.
type BookingMetrics struct {
	Total      int64
	Created    int64 // 201
	Validation int64 // 400
	Conflict   int64 // 409
	AfterHours int64 // 422
	Error      int64 // everything else
}

func (bm *BookingMetrics) Record(status int) {
	atomic.AddInt64(&bm.Total, 1)
	switch status {
	case http.StatusCreated:
		atomic.AddInt64(&bm.Created, 1)
	case http.StatusBadRequest:
		atomic.AddInt64(&bm.Validation, 1)
	case http.StatusConflict:
		atomic.AddInt64(&bm.Conflict, 1)
	case http.StatusUnprocessableEntity:
		atomic.AddInt64(&bm.AfterHours, 1)
	default:
		atomic.AddInt64(&bm.Error, 1)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate starting: url=%s workers=%d duration=%s therapists=%d",
		cfg.APIBaseURL, cfg.Workers, cfg.Duration, cfg.Therapists)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	metrics := &BookingMetrics{}

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				status, err := bookOnce(ctx, client, cfg, rng)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("worker %d: request error: %v", worker, err)
					atomic.AddInt64(&metrics.Total, 1)
					atomic.AddInt64(&metrics.Error, 1)
					continue
				}
				metrics.Record(status)
			}
		}(i)
	}

	wg.Wait()
	report(metrics, cfg.Duration)
}

// bookOnce posts a booking in a small deliberately overlapping window so the
// run exercises conflicts, validation failures, and the clinic-hours gate.
func bookOnce(ctx context.Context, client *http.Client, cfg SimConfig, rng *rand.Rand) (int, error) {
	day := time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour)

	// Narrow slot pool per therapist forces double-booking attempts; hours
	// from 6 to 22 stray outside the default clinic window on purpose.
	hour := 6 + rng.Intn(17)
	start := day.Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(2))*30*time.Minute)
	end := start.Add(50 * time.Minute)

	patientID := fmt.Sprintf("%09d", 100000000+rng.Intn(900000000))
	if rng.Intn(20) == 0 {
		patientID = "" // provoke a validation rejection
	}

	body, err := json.Marshal(map[string]any{
		"patientId":   patientID,
		"therapistId": fmt.Sprintf("therapist-%d", rng.Intn(cfg.Therapists)),
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
		"notes":       "load simulation booking",
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func report(m *BookingMetrics, d time.Duration) {
	total := atomic.LoadInt64(&m.Total)
	log.Println("simulation complete")
	log.Printf("  total:       %d (%.1f req/s)", total, float64(total)/d.Seconds())
	log.Printf("  created:     %d", atomic.LoadInt64(&m.Created))
	log.Printf("  conflict:    %d", atomic.LoadInt64(&m.Conflict))
	log.Printf("  after-hours: %d", atomic.LoadInt64(&m.AfterHours))
	log.Printf("  validation:  %d", atomic.LoadInt64(&m.Validation))
	log.Printf("  error:       %d", atomic.LoadInt64(&m.Error))
}

func loadSimConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Duration:   getDurationEnv("SIM_DURATION", 30*time.Second),
		Workers:    getIntEnv("SIM_WORKERS", 8),
		Therapists: getIntEnv("SIM_THERAPISTS", 4),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
