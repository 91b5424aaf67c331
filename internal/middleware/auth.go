package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

const (
	cashierIDKey   contextKey = "cashierID"
	cashierNameKey contextKey = "cashierName"
)

// AuthMiddleware verifies the bearer token and loads the cashier identity
// into the request context. Token issuance lives in the account service,
// not here.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		cashierID, cashierName, err := validateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), cashierIDKey, cashierID)
		ctx = context.WithValue(ctx, cashierNameKey, cashierName)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validateToken(tokenString string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})

	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid claims")
	}

	cashierID := fmt.Sprintf("%v", claims["cashier_id"])
	cashierName := fmt.Sprintf("%v", claims["cashier_name"])
	if cashierID == "" || cashierID == "<nil>" {
		return "", "", fmt.Errorf("missing cashier_id claim")
	}
	return cashierID, cashierName, nil
}

// WithCashier returns a context carrying a cashier identity, as
// AuthMiddleware would have set it.
func WithCashier(ctx context.Context, cashierID, cashierName string) context.Context {
	ctx = context.WithValue(ctx, cashierIDKey, cashierID)
	return context.WithValue(ctx, cashierNameKey, cashierName)
}

// CashierID returns the authenticated cashier id from the request context.
func CashierID(ctx context.Context) string {
	id, _ := ctx.Value(cashierIDKey).(string)
	return id
}

// CashierName returns the authenticated cashier display name.
func CashierName(ctx context.Context) string {
	name, _ := ctx.Value(cashierNameKey).(string)
	return name
}
