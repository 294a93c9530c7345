package httputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/cinewave/cinewave-api/internal/logging"
)

// ErrorResponse is the JSON body of every error reply. Code is omitted for
// gate rejections, whose body is exactly {"error": message}.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var logger atomic.Pointer[logging.Logger]

func init() {
	logger.Store(logging.NewLogger(false))
}

// SetLogger sets where encoding failures are reported.
func SetLogger(l *logging.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// RespondJSON encodes data before writing anything, so an encoding failure
// becomes a plain 500 instead of a truncated body.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		logger.Load().Error("failed to encode JSON response",
			"status", statusCode,
			"error", err.Error(),
		)
		buf.Reset()
		buf.WriteString(`{"error":"internal server error","code":"` + CodeInternalError + `"}` + "\n")
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Load().Debug("failed to write JSON response", "error", err.Error())
	}
}

// RespondError sends {"error": message}.
func RespondError(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// RespondErrorWithCode sends an error with a machine-readable code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondUnauthorized writes the bearer challenge for code and a 401 whose
// body carries only the message.
func RespondUnauthorized(w http.ResponseWriter, message string, code string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="`+code+`"`)
	RespondError(w, message, http.StatusUnauthorized)
}
