package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/stockhist/internal/auth"
)

// PrincipalMiddleware reads the caller identity the gateway asserted via
// trusted headers and places it on the request context. Requests without the
// headers pass through unauthenticated; handlers decide whether that matters.
func PrincipalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberIDRaw := strings.TrimSpace(r.Header.Get("X-Member-Id"))
		if memberIDRaw == "" {
			next.ServeHTTP(w, r)
			return
		}

		memberID, err := strconv.ParseInt(memberIDRaw, 10, 64)
		if err != nil || memberID <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		role := auth.Role(strings.TrimSpace(r.Header.Get("X-Member-Role")))
		if role == "" {
			role = auth.RoleMember
		}

		ctx := auth.ContextWithPrincipal(r.Context(), auth.Principal{
			MemberID: memberID,
			Role:     role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
