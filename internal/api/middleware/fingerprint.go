package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/votingroom/internal/api/apierr"
	"github.com/mcoot/votingroom/internal/model"
)

type contextKey string

const fingerprintContextKey contextKey = "fingerprint"

// FingerprintHeader carries the caller's opaque browser identity
const FingerprintHeader = "X-User-Fingerprint"

const maxFingerprintLength = 256

// Fingerprint extracts the caller fingerprint, if any, into the request context
func Fingerprint() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fp := strings.TrimSpace(r.Header.Get(FingerprintHeader))
			if len(fp) > maxFingerprintLength {
				apierr.WriteError(w, apierr.NewValidationError("X-User-Fingerprint is too long"))
				return
			}
			if fp != "" {
				r = r.WithContext(context.WithValue(r.Context(), fingerprintContextKey, model.Fingerprint(fp)))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFingerprint rejects requests without a fingerprint
func RequireFingerprint(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetFingerprint(r.Context()) == "" {
			apierr.WriteError(w, apierr.NewUnauthorizedError())
			return
		}
		next(w, r)
	}
}

// GetFingerprint returns the caller fingerprint from the request context
func GetFingerprint(ctx context.Context) model.Fingerprint {
	fp, _ := ctx.Value(fingerprintContextKey).(model.Fingerprint)
	return fp
}
