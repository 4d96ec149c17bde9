package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/velora-pos/velora/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Unclassified errors are logged and hidden behind a plain 500.
func RespondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var stockErr *shared.InsufficientStockError
	var publishErr *shared.PublishLimitError
	var validationErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		Problem(w, http.StatusBadRequest, "Malformed Request Body", "request body is not valid JSON")
	case errors.As(err, &stockErr):
		JSON(w, http.StatusConflict, ProblemDetail{
			Title:     "Insufficient Stock",
			Status:    http.StatusConflict,
			Detail:    stockErr.Error(),
			ProductID: &stockErr.ProductID,
			Requested: &stockErr.Requested,
			Available: &stockErr.Available,
		})
	case errors.As(err, &publishErr):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:     "Publish Limit Exceeded",
			Status:    http.StatusBadRequest,
			Detail:    publishErr.Error(),
			ProductID: &publishErr.ProductID,
			Requested: &publishErr.Requested,
			Available: &publishErr.Available,
		})
	case errors.As(err, &validationErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", validationErrs.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidArgument):
		Problem(w, http.StatusBadRequest, "Invalid Argument", err.Error())
	case errors.Is(err, shared.ErrInvalidState):
		Problem(w, http.StatusUnprocessableEntity, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		if logger != nil {
			logger.Error("request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
