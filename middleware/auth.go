package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/corazonmc/cobblemon-league/models"
)

type contextKey string

const claimsContextKey contextKey = "claims"

const (
	jwtClaimTrainerID = "trainer_id"
	jwtClaimNick      = "nick"
	jwtClaimRole      = "role"

	tokenLifetime = 30 * 24 * time.Hour
)

// GenerateToken выпускает HS256-токен сессии с идентичностью тренера.
func GenerateToken(secret []byte, trainer *models.Trainer) (string, error) {
	claims := jwt.MapClaims{
		jwtClaimTrainerID: trainer.ID,
		jwtClaimNick:      trainer.Nick,
		jwtClaimRole:      string(trainer.Role),
		"exp":             time.Now().Add(tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Authenticate проверяет Bearer-токен и кладёт клеймы в контекст.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пускает дальше только админскую сессию.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, err := GetRoleFromContext(r.Context())
		if err != nil || role != models.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) (jwt.MapClaims, error) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	if !ok {
		return nil, errors.New("session claims not found in context")
	}
	return claims, nil
}

func GetTrainerIDFromContext(ctx context.Context) (int, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return 0, err
	}

	raw, ok := claims[jwtClaimTrainerID]
	if !ok {
		return 0, errors.New("missing trainer_id claim in token")
	}
	// Числа из JSON-клеймов приходят как float64.
	idFloat, ok := raw.(float64)
	if !ok || idFloat != float64(int(idFloat)) || int(idFloat) <= 0 {
		return 0, errors.New("invalid trainer_id claim in token")
	}
	return int(idFloat), nil
}

func GetNickFromContext(ctx context.Context) (string, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	nick, ok := claims[jwtClaimNick].(string)
	if !ok || nick == "" {
		return "", errors.New("missing nick claim in token")
	}
	return nick, nil
}

func GetRoleFromContext(ctx context.Context) (models.TrainerRole, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	roleStr, ok := claims[jwtClaimRole].(string)
	if !ok {
		return "", errors.New("missing role claim in token")
	}

	role := models.TrainerRole(roleStr)
	switch role {
	case models.RoleAdmin, models.RoleTrainer:
		return role, nil
	default:
		return "", errors.New("invalid role claim in token")
	}
}
