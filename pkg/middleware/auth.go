package middleware

import (
	"net/http"
	"strings"
	"time"

	"ptcms/pkg/client"
	apperrors "ptcms/pkg/errors"
	httputil "ptcms/pkg/http"
	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims mirrors the access token issued by the backend.
type AccessClaims struct {
	jwt.RegisteredClaims

	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), now: time.Now}
}

func (v *TokenVerifier) Verify(token string) (*Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)

	claims := &AccessClaims{}
	tok, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}

	return &Principal{
		UserID:   claims.UserID,
		Username: username,
		Role:     model.PrimaryRole(claims.Roles),
		Token:    token,
	}, nil
}

// Authentication requires a valid bearer token and stores the caller in the
// request context, and forwards the token on backend calls made with it.
// Browsers cannot set headers on websocket handshakes, so
// an access_token query parameter is accepted there.
func Authentication(verifier *TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("missing bearer token"))
				return
			}

			principal, err := verifier.Verify(token)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestIDFromContext(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("invalid or expired token"))
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			ctx = client.WithBearerToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	if isWebSocketUpgrade(r) {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
