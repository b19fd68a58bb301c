package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"campaignspace/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusForError maps the error taxonomy to HTTP status codes. Unknown
// errors are internal.
func statusForError(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict), errors.Is(err, common.ErrorAlreadyGenerated):
		return http.StatusConflict
	case errors.Is(err, common.ErrorSourceUnreachable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders an error as the JSON error envelope. The message is
// the error text itself so every failure is distinguishable.
func writeError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusForError(err), err.Error())
}
