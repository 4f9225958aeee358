// Package auth provides JWT-based authentication middleware with metrics.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

type contextKey string

const (
	userContextKey contextKey = "user"
)

const (
	tokenTTL = 7 * 24 * time.Hour
	issuer   = "cloudex"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
)

// Claims holds JWT token claims.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type account struct {
	user models.User
	hash []byte
}

// Auth handles JWT authentication against an in-memory user directory.
type Auth struct {
	mu     sync.RWMutex
	users  map[string]*account
	secret []byte
	now    func() time.Time
}

// New creates a new Auth handler. An empty secret is replaced by a random
// one, which invalidates tokens on restart.
func New(jwtSecret string) *Auth {
	secret := []byte(jwtSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("generate jwt secret: %v", err))
		}
		logging.Warn("JWT_SECRET not set, using a random per-process secret")
	}
	return &Auth{
		users:  make(map[string]*account),
		secret: secret,
		now:    time.Now,
	}
}

// AddUser registers a user with the given password.
func (a *Auth) AddUser(u models.User, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, ok := a.users[key]; ok {
		return fmt.Errorf("%s: %w", u.Username, ErrUserExists)
	}
	a.users[key] = &account{user: u, hash: hashed}
	logging.Info("user created", zap.String("username", u.Username))
	return nil
}

// User returns the user with the given ID.
func (a *Auth) User(id int) (models.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, acc := range a.users {
		if acc.user.ID == id {
			return acc.user, true
		}
	}
	return models.User{}, false
}

// Authenticate checks a username and password.
func (a *Auth) Authenticate(username, password string) (models.User, error) {
	a.mu.RLock()
	acc, ok := a.users[strings.ToLower(username)]
	a.mu.RUnlock()
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return acc.user, nil
}

// IssueToken signs a token for u.
func (a *Auth) IssueToken(u models.User) (string, time.Time, error) {
	now := a.now()
	claims := &Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, claims.ExpiresAt.Time, nil
}

// Middleware returns HTTP middleware that validates JWT tokens.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			metrics.RecordAuthAttempt(false)
			sendAuthError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		claims, err := a.validateToken(tokenStr)
		if err != nil {
			metrics.RecordAuthAttempt(false)
			sendAuthError(w, http.StatusUnauthorized, "invalid token: "+err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// GetClaims extracts claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(userContextKey).(*Claims)
	return claims
}

// HandleLogin handles POST /api/v1/auth/token
func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req protocol.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordAuthAttempt(false)
		sendAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		metrics.RecordAuthAttempt(false)
		sendAuthError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := a.Authenticate(req.Username, req.Password)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		logging.Warn("login failed", zap.String("username", req.Username))
		sendAuthError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokenStr, expires, err := a.IssueToken(user)
	if err != nil {
		metrics.RecordAuthAttempt(false)
		logging.Error("failed to sign token", zap.Error(err))
		sendAuthError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	metrics.RecordAuthAttempt(true)
	logging.Info("login successful", zap.String("username", user.Username))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(protocol.LoginResponse{
		Token:     tokenStr,
		ExpiresAt: expires,
		User:      user,
	})
}

func (a *Auth) validateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func extractToken(r *http.Request) string {
	// Bearer token from Authorization header
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Query parameter fallback for EventSource and WebSocket clients
	return r.URL.Query().Get("token")
}

func sendAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  status,
	})
}
