package auth

import (
	"net/http"

	"github.com/cinewave/cinewave-api/internal/httputil"
	"github.com/cinewave/cinewave-api/internal/logging"
)

// Middleware enforces the gate's decision. Rejected requests get a 401 JSON
// error and never reach next; admitted protected requests carry the
// principal in their context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Decide(r)

		if !decision.Admitted {
			logger := logging.GetLoggerFromContext(r.Context())
			args := []any{"reason", decision.Reason.String()}
			if decision.Err != nil {
				args = append(args, "error", decision.Err.Error())
			}
			logger.Warn("request rejected by auth gate", args...)

			httputil.RespondUnauthorized(w, decision.Reason.Message(), decision.Reason.String())
			return
		}

		if decision.Principal != nil {
			r = r.WithContext(WithPrincipal(r.Context(), *decision.Principal))
		}
		next.ServeHTTP(w, r)
	})
}
