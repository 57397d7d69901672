package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/contest-awards/internal/usecase"
)

const (
	googleAPIVersion    = "2.0"
	errorDomain         = "contest-awards"
	internalErrorReason = "internalError"
	internalErrorMsg    = "internal server error"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// errorRules is evaluated in order; the first match wins.
var errorRules = []struct {
	match  func(error) bool
	mapped mappedError
}{
	{match: isRequestTooLarge, mapped: mappedError{http.StatusRequestEntityTooLarge, "payloadTooLarge", "INVALID_ARGUMENT"}},
	{match: isErr(usecase.ErrInvalidInput), mapped: mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{match: isErr(usecase.ErrNotFound), mapped: mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{match: isErr(usecase.ErrRejected), mapped: mappedError{http.StatusUnprocessableEntity, "submissionRejected", "FAILED_PRECONDITION"}},
	{match: isErr(usecase.ErrConflict), mapped: mappedError{http.StatusConflict, "conflict", "ABORTED"}},
	{match: isErr(usecase.ErrDependencyUnavailable), mapped: mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

func isErr(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func isRequestTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func mapError(err error) mappedError {
	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.mapped
		}
	}
	return mappedError{http.StatusInternalServerError, internalErrorReason, "INTERNAL"}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

// writeError renders err in the error envelope. Unmapped errors are reported
// as a generic internal error so driver messages never reach clients.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	mapped := mapError(err)
	if mapped.HTTPStatus == http.StatusInternalServerError {
		writeInternalError(ctx, w)
		return
	}
	writeErrorBody(w, mapped, err.Error())
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeErrorBody(w, mappedError{http.StatusInternalServerError, internalErrorReason, "INTERNAL"}, internalErrorMsg)
}

func writeErrorBody(w http.ResponseWriter, mapped mappedError, message string) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Errors: []googleErrorItem{{
				Domain:  errorDomain,
				Reason:  mapped.Reason,
				Message: message,
			}},
		},
	})
}
