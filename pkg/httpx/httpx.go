package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteDomainError maps the error taxonomy to HTTP statuses: validation and
// precondition failures 400, unknown ids 404, duplicate consent 409,
// crypto/storage faults 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr   *domain.ValidationError
		preconditionErr *domain.PreconditionError
		notFoundErr     *domain.NotFoundError
		conflictErr     *domain.ConflictError
		cryptoErr       *domain.CryptoError
		storageErr      *domain.StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationErr.Reason, nil)
	case errors.As(err, &preconditionErr):
		WriteError(w, http.StatusBadRequest, "PRECONDITION_ERROR", preconditionErr.Reason, nil)
	case errors.As(err, &notFoundErr):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", notFoundErr.Error(), nil)
	case errors.As(err, &conflictErr):
		WriteError(w, http.StatusConflict, "CONFLICT", conflictErr.Reason, nil)
	case errors.As(err, &cryptoErr):
		WriteError(w, http.StatusInternalServerError, "CRYPTO_ERROR", "signing infrastructure failure", nil)
	case errors.As(err, &storageErr):
		WriteError(w, http.StatusInternalServerError, "STORAGE_ERROR", "storage failure", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}
