// mock-gateway serves canned evidence for local development. Point
// TARKA_GATEWAY_BASE_URL at it and every investigation sees a crashlooping
// checkout pod with matching logs, metrics, and scope.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type podCondition struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type clusterEvent struct {
	Time    time.Time `json:"time"`
	Type    string    `json:"type"`
	Reason  string    `json:"reason"`
	Message string    `json:"message"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/evidence/cluster", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"pod_phase": "Running",
			"ready":     false,
			"conditions": []podCondition{
				{Type: "Ready", Status: "False", Reason: "ContainersNotReady", Message: "containers with unready status: [checkout]"},
			},
			"events": []clusterEvent{
				{Time: time.Now().Add(-3 * time.Minute), Type: "Warning", Reason: "BackOff", Message: "Back-off restarting failed container"},
			},
			"owner_chain":              []string{"deployment/checkout"},
			"rollout_status":           "progressing",
			"restart_count":            7,
			"last_termination_reason":  "Error",
			"container_waiting_reason": "CrashLoopBackOff",
		})
	})

	mux.HandleFunc("/api/v1/evidence/metrics", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"signals": map[string]float64{
				"up":                       1,
				"throttle_ratio":           0.12,
				"memory_working_set_ratio": 0.64,
				"restart_rate_per_hour":    6,
			},
		})
	})

	mux.HandleFunc("/api/v1/evidence/logs", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"lines": []string{
				"2026/08/29 10:01:02 connecting to payments:8443",
				"2026/08/29 10:01:04 dial tcp 10.4.2.1:8443: connect: connection refused",
				"panic: payments client unavailable",
				"goroutine 1 [running]:",
			},
			"backend": "victorialogs",
			"query":   `{namespace="shop",pod="checkout-6f7b9"} | limit 200`,
		})
	})

	mux.HandleFunc("/api/v1/evidence/scope", func(w http.ResponseWriter, r *http.Request) {
		if !enforcePost(w, r) {
			return
		}
		writeJSON(w, map[string]any{
			"firing_count":  3,
			"active_count":  3,
			"flap_per_hour": 0.5,
			"label_cardinality": map[string]int{
				"pod": 3,
			},
		})
	})

	logger := log.New(log.Writer(), "mock-gateway ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func enforcePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
