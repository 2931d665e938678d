package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/session"
)

var (
	ErrInvalidToken      = errors.New("invalid or expired token")
	ErrIncompleteProfile = errors.New("token is missing email or display name")
)

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*session.Principal, error)
}

// JWTVerifier signs and checks HS256 tokens for the local password provider.
type JWTVerifier struct {
	secret     []byte
	expiration time.Duration
}

func NewJWTVerifier(secret string, expiration time.Duration) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), expiration: expiration}
}

func (v *JWTVerifier) Issue(p session.Principal) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": p.ID,
		"email":   p.Email,
		"name":    p.DisplayName,
		"exp":     now.Add(v.expiration).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*session.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return principal(userID, email, name)
}

func principal(id, email, name string) (*session.Principal, error) {
	if email == "" || name == "" {
		return nil, ErrIncompleteProfile
	}
	return &session.Principal{ID: id, Email: email, DisplayName: name}, nil
}

// Authenticate attaches a session when the request carries a valid bearer
// token. Requests without one pass through anonymously.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			p, err := v.Verify(r.Context(), parts[1])
			if err != nil {
				msg := "Invalid or expired token"
				if errors.Is(err, ErrIncompleteProfile) {
					msg = "Account is missing an email or display name"
				}
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse(msg))
				return
			}

			ctx := session.WithSession(r.Context(), session.New(*p))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Guard applies the session route rules to the request path. Anonymous
// callers get 401; signed-in callers hitting the sign-in routes are sent
// home.
func Guard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := session.FromContext(r.Context())
			if session.Allowed(r.URL.Path, s) {
				next.ServeHTTP(w, r)
				return
			}
			if s == nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization required"))
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	}
}

// CurrentPrincipal returns the signed-in principal, or nil.
func CurrentPrincipal(ctx context.Context) *session.Principal {
	s, ok := session.FromContext(ctx)
	if !ok || s == nil {
		return nil
	}
	return &s.Principal
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	s, _ := session.FromContext(ctx)
	return s.UserID()
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
