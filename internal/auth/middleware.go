package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/velora-pos/velora/internal/platform/httpx"
	"github.com/velora-pos/velora/internal/shared"
)

// RequireAuth parses the bearer token and stores the Principal in the
// request context. Requests without a valid token never reach the handler.
func RequireAuth(logger *slog.Logger, service *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "expected Authorization: Bearer <token>")
				return
			}
			principal, err := service.ParseToken(parts[1])
			if err != nil {
				httpx.RespondError(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
