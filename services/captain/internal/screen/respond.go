package screen

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/appetiteclub/captain/services/captain/internal/gateway"
)

const maxBodyBytes = 1 << 20

// statusFor maps an error kind to the HTTP status of the screen response.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrSessionNotFound) {
		return http.StatusNotFound
	}
	switch gateway.KindOf(err) {
	case gateway.KindUnauthorized:
		return http.StatusUnauthorized
	case gateway.KindValidationRejected:
		return http.StatusConflict
	case gateway.KindServerRejected:
		return http.StatusUnprocessableEntity
	case gateway.KindFetchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respond writes data or err as a gateway.Result.
func respond[T any](w http.ResponseWriter, data T, err error) {
	writeJSON(w, statusFor(err), gateway.ResultOf(data, err))
}

func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, gateway.Result[struct{}]{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(dest)
}
