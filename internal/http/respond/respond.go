package respond

import (
	"encoding/json"
	"net/http"

	"github.com/hongminglow/backoffice/internal/models/dto"
)

// Envelope is the GraphQL-shaped response wrapper used by the API endpoint.
type Envelope struct {
	Data   any                `json:"data"`
	Errors []dto.GraphQLError `json:"errors,omitempty"`
}

// Data writes a successful operation result.
func Data(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Data: data})
}

// Error writes a single operation error with a null data field.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, Envelope{Errors: []dto.GraphQLError{{
		Message:    message,
		Extensions: dto.GraphQLExtensions{Code: code},
	}}})
}

// JSON writes payload as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out; an encode failure means the client went away
	_ = json.NewEncoder(w).Encode(payload)
}
