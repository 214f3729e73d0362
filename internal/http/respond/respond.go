// Package respond writes JSON responses. Error bodies are a minimal
// {message} object; fulfillment failures additionally carry the factory's
// report reference when one exists.
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pizzanet/pizza-service/internal/errs"
)

// JSON writes a payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("respond: encode payload failed: %v", err)
	}
}

// Message writes a {message} body with the given status.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Error maps a typed failure to its fixed status code and {message} body.
// Anything outside the taxonomy becomes an opaque 500.
func Error(w http.ResponseWriter, err error) {
	var appErr *errs.Error
	if !errors.As(err, &appErr) {
		Message(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if appErr.ReportURL != "" {
		JSON(w, appErr.Status, map[string]string{
			"message":   appErr.Message,
			"reportUrl": appErr.ReportURL,
		})
		return
	}
	Message(w, appErr.Status, appErr.Message)
}
