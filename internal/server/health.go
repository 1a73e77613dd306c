package server

import "net/http"

// healthStatus is the body of the health probe responses.
type healthStatus struct {
	Status string `json:"status"`
}

// livenessHandler reports that the process is alive. It always answers 200.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		writeJSON(r.Context(), w, healthStatus{Status: "ok"}, http.StatusOK)
	}
}

// readinessHandler answers 200 while checker reports ready and 503 otherwise,
// so load balancers stop routing before shutdown begins.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if !checker.IsReady() {
			writeJSON(r.Context(), w, healthStatus{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		writeJSON(r.Context(), w, healthStatus{Status: "ready"}, http.StatusOK)
	}
}
