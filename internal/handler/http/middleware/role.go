package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// RequireAdmin guards configuration writes: policies, charge rates, loans and holidays.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, jwt.ErrAdminRequired)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || jwt.Role(role) != jwt.RoleAdmin {
			response.HandleError(w, jwt.ErrAdminRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
