package response

import (
	"encoding/json"
	"net/http"
)

// Status values carried by the envelope
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Response represents a standard API response
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// Success creates a new success response
func Success(message string, data interface{}) Response {
	return Response{
		Status:  StatusSuccess,
		Message: message,
		Data:    data,
	}
}

// Fail creates a response for a request the client has to change
func Fail(message string) Response {
	return Response{
		Status:  StatusFail,
		Message: message,
	}
}

// Error creates a response for a failure on our side or upstream
func Error(message string, details interface{}) Response {
	return Response{
		Status:  StatusError,
		Message: message,
		Details: details,
	}
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
