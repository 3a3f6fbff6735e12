package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/rs/zerolog/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 24 * time.Hour

// NewTokenAuth builds the JWT authority used to issue and verify tokens.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// IssueToken creates a signed token carrying the user id.
func IssueToken(auth *jwtauth.JWTAuth, userID string) (string, error) {
	_, tokenString, err := auth.Encode(map[string]interface{}{
		"user_id": userID,
		"exp":     time.Now().Add(TokenTTL).Unix(),
	})
	return tokenString, err
}

// UserContext extracts the user id from the verified JWT claims and stores
// it in the request context. It must run after jwtauth.Verifier and
// jwtauth.Authenticator.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			Unauthorized(w)
			return
		}
		userID, _ := claims["user_id"].(string)
		if userID == "" {
			Unauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the authenticated user id stored by UserContext.
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// RequestLogger logs each request at info level once the response is
// written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
