// internal/httpserver/auth.go
//
// Guest player sessions. Accounts live elsewhere; this server only needs a
// stable player ID per client, carried in an HS256 JWT (Authorization:
// Bearer <token> or the session cookie).

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/robalobadob/justone/internal/apperr"
)

// player is placed into request context by requireAuth.
type player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ctxPlayerKey is the context key type for storing *player.
type ctxPlayerKey struct{}

func currentPlayer(ctx context.Context) *player {
	p, _ := ctx.Value(ctxPlayerKey{}).(*player)
	return p
}

type sessionReq struct {
	Name string `json:"name"`
}

type sessionRes struct {
	PlayerID  string    `json:"playerId"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleSession issues a fresh guest identity.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var body sessionReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, apperr.Invalid("invalid json"))
		return
	}
	name := strings.TrimSpace(body.Name)
	if len(name) < 1 || len(name) > 24 {
		writeError(w, r, apperr.Invalid("name must be 1-24 chars"))
		return
	}
	id := uuid.NewString()
	tok, exp, err := s.signJWT(id, name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.setAuthCookie(w, tok, exp)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sessionRes{PlayerID: id, Name: name, Token: tok, ExpiresAt: exp})
}

// signJWT creates an HS256 JWT with id/name and the configured expiry.
func (s *Server) signJWT(id, name string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   id,
		"name": name,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// setAuthCookie writes the session cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.SecureCookies {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or session cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth enforces a valid JWT and injects the player into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := s.bearerOrCookie(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(s.cfg.JWTSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
				return
			}
			id, _ := claims["id"].(string)
			name, _ := claims["name"].(string)
			if id == "" {
				http.Error(w, `{"error":"invalid_token"}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxPlayerKey{}, &player{ID: id, Name: name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
