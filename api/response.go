package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/creativeprojects/webmail/lib"
	"github.com/go-playground/validator/v10"
)

// respondJSON sends a success envelope: the fields are merged with "success": true
func respondJSON(w http.ResponseWriter, status int, fields map[string]any) {
	response := map[string]any{
		"success": status >= 200 && status < 300,
	}
	for key, value := range fields {
		response[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// respondError sends an error envelope
func respondError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
		"kind":    kind,
	})
}

// respondFailure sends the error envelope matching the kind of err
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	kind := lib.KindOf(err)
	status := statusOf(kind)
	if status == http.StatusInternalServerError {
		s.log.Printf("request failed: %s", err)
	}
	respondError(w, status, kind, lib.UserMessage(err))
}

func statusOf(kind string) int {
	switch kind {
	case "VALIDATION":
		return http.StatusBadRequest
	case "AUTHENTICATION":
		return http.StatusUnauthorized
	case "MAILBOX_NOT_FOUND", "MESSAGE_NOT_FOUND":
		return http.StatusNotFound
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	case "REFUSED", "TRANSPORT_REFUSED", "CONNECTION":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decode reads the JSON body into v then runs the struct validation
func (s *Server) decode(r *http.Request, v any) error {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
			var classified *lib.Error
			if errors.As(err, &classified) {
				return err
			}
			return lib.Validationf("invalid request body: %s", err)
		}
	}
	if err := s.validator.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return lib.NewError(lib.ErrValidation, "invalid request", err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s %s", e.Field(), formatValidationError(e.Tag(), e.Param())))
	}
	return lib.NewError(lib.ErrValidation, strings.Join(messages, ", "), err)
}

// formatValidationError formats a validation error message.
func formatValidationError(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	default:
		return "is invalid"
	}
}
