package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/store"
	"github.com/opencourse/tarpaulin/pkg/httpx"
)

// writeServiceError maps service and store sentinels onto HTTP statuses.
// Anything unmapped is an infrastructure failure and becomes a 500; the
// underlying error is logged, never sent to the client.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrMissingCredential):
		httpx.WriteError(w, http.StatusUnauthorized, "missing credential")
	case errors.Is(err, service.ErrInvalidCredential),
		errors.Is(err, service.ErrUnknownSubject):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid credential")
	case errors.Is(err, service.ErrExpiredCredential):
		httpx.WriteError(w, http.StatusUnauthorized, "expired credential")
	case errors.Is(err, service.ErrWrongRole),
		errors.Is(err, service.ErrNotOwner),
		errors.Is(err, service.ErrNotEnrolled):
		httpx.WriteError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, store.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "already exists")
	case errors.Is(err, service.ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
