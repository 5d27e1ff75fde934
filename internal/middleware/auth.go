package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ytscript-backend/internal/models"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	PlanKey   contextKey = "plan"
)

type JWTAuth struct {
	Secret []byte
}

func NewJWTAuth(secret string) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret)}
}

// GenerateAccessToken creates a JWT with the given expiry
func (j *JWTAuth) GenerateAccessToken(userID uuid.UUID, email string, plan models.Plan, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"plan":    string(plan),
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

type authError struct {
	code    string
	message string
}

var (
	errTokenExpired = &authError{"TOKEN_EXPIRED", "Token has expired"}
	errTokenInvalid = &authError{"UNAUTHORIZED", "Invalid token"}
)

// authenticate parses the bearer token and returns the caller's identity.
func (j *JWTAuth) authenticate(r *http.Request) (uuid.UUID, models.Plan, *authError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return uuid.Nil, "", &authError{"UNAUTHORIZED", "Missing authorization header"}
	}

	// Must be Bearer format
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return uuid.Nil, "", &authError{"UNAUTHORIZED", "Invalid authorization format"}
	}

	userID, plan, err := j.ParseToken(parts[1])
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", errTokenExpired
		}
		return uuid.Nil, "", errTokenInvalid
	}
	return userID, plan, nil
}

// ParseToken validates a raw JWT and returns its user and plan claims.
func (j *JWTAuth) ParseToken(tokenStr string) (uuid.UUID, models.Plan, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return uuid.Nil, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, "", jwt.ErrTokenInvalidClaims
	}

	planStr, _ := claims["plan"].(string)
	return userID, models.ParsePlan(planStr), nil
}

// Middleware validates JWT and attaches user_id and plan to context
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, plan, authErr := j.authenticate(r)
		if authErr != nil {
			writeError(w, http.StatusUnauthorized, authErr.code, authErr.message, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, plan)))
	})
}

// Optional attaches the identity when a valid token is present and lets
// anonymous requests through as FREE. A present but invalid token is still
// rejected.
func (j *JWTAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, plan, authErr := j.authenticate(r)
		if authErr != nil {
			writeError(w, http.StatusUnauthorized, authErr.code, authErr.message, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, plan)))
	})
}

func WithIdentity(ctx context.Context, userID uuid.UUID, plan models.Plan) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, PlanKey, plan)
}

// GetUserID extracts user_id from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

// GetPlan returns the caller's plan, FREE when unauthenticated.
func GetPlan(ctx context.Context) models.Plan {
	plan, ok := ctx.Value(PlanKey).(models.Plan)
	if !ok {
		return models.PlanFree
	}
	return plan
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}
