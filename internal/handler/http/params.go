package http

import (
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// idParam returns the named URL parameter, lowercased, when it is a UUID.
func idParam(r *http.Request, name string) (string, bool) {
	raw := chi.URLParam(r, name)
	if !validator.IsValidUUID(raw) {
		return "", false
	}
	return strings.ToLower(raw), true
}
