// Package auth decides, per request, whether a caller may proceed: either the
// (path, method) pair is on the exemption list, or the request must carry a
// valid bearer token signed with the shared secret.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Principal struct {
	UserID  string
	IsAdmin bool
}

// Exemption excuses requests from the credential check. A prefix entry
// matches everything under Prefix but only for the listed methods; an exact
// entry matches one literal path for any method.
type Exemption struct {
	Prefix  string
	Exact   string
	Methods []string
}

func (e Exemption) matches(method, path string) bool {
	if e.Exact != "" {
		return path == e.Exact
	}
	if !strings.HasPrefix(path, e.Prefix) {
		return false
	}
	for _, m := range e.Methods {
		if m == method {
			return true
		}
	}
	return false
}

type Gate struct {
	secret []byte
	ttl    time.Duration
	exempt []Exemption
}

func NewGate(secret string, ttl time.Duration, exempt []Exemption) *Gate {
	return &Gate{secret: []byte(secret), ttl: ttl, exempt: exempt}
}

// DefaultExemptions opens catalog reads and the endpoints that hand out
// credentials in the first place.
func DefaultExemptions(basePath string) []Exemption {
	reads := []string{http.MethodGet, http.MethodOptions}
	return []Exemption{
		{Prefix: basePath + "/products", Methods: reads},
		{Prefix: basePath + "/categories", Methods: reads},
		{Exact: basePath + "/users/login"},
		{Exact: basePath + "/users/register"},
	}
}

func (g *Gate) Exempt(method, path string) bool {
	for _, e := range g.exempt {
		if e.matches(method, path) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Middleware rejects unexempted requests that fail verification before any
// handler runs; on success the principal rides the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Exempt(r.Method, r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		p, err := g.Verify(bearer(r))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "User not authorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

// Verify checks signature, algorithm and expiry, then decodes the principal.
func (g *Gate) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, fmt.Errorf("missing credential")
	}
	parsed, err := jwt.Parse(token,
		func(t *jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("verify token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, fmt.Errorf("unexpected claims type")
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return Principal{}, fmt.Errorf("token has no userId")
	}
	isAdmin, _ := claims["isAdmin"].(bool)
	return Principal{UserID: userID, IsAdmin: isAdmin}, nil
}

// IssueToken signs a credential for a freshly authenticated user.
func (g *Gate) IssueToken(p Principal) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":  p.UserID,
		"isAdmin": p.IsAdmin,
		"iat":     now.Unix(),
		"exp":     now.Add(g.ttl).Unix(),
	})
	return t.SignedString(g.secret)
}
