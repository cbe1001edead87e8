package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// WriteJSON writes data wrapped in the standard success envelope. Data that
// cannot be encoded yields a 500 instead of a truncated 200.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(map[string]interface{}{
		"success": true,
		"data":    data,
	})
	if err != nil {
		log.Printf("[ERROR] encode response: %v", err)
		WriteError(w, http.StatusInternalServerError, "encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// WriteError writes msg wrapped in the standard error envelope.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	}); err != nil {
		log.Printf("[ERROR] encode error response: %v", err)
	}
}

// CorsMiddleware allows browser clients on other origins to call the API.
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
