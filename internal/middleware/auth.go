package middleware

import (
	"fmt"
	"slices"
	"strings"

	"anoa.com/unitech/internal/entity"
	userRepo "anoa.com/unitech/internal/modules/user/repository"
	"anoa.com/unitech/pkg/apperror"
	"anoa.com/unitech/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthMiddleware struct {
	userRepo userRepo.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo userRepo.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			response.ResponseError(c, fmt.Errorf("%w: authorization required", apperror.ErrUnauthorized))
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})

		if err != nil || !token.Valid {
			response.ResponseError(c, fmt.Errorf("%w: invalid or expired token", apperror.ErrUnauthorized))
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			response.ResponseError(c, fmt.Errorf("%w: invalid token claims", apperror.ErrUnauthorized))
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// RequireRole loads the authenticated user and lets active users with one of roles through.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := response.GetUserID(c)
		if err != nil {
			response.ResponseError(c, err)
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.ResponseError(c, fmt.Errorf("%w: user not found", apperror.ErrUnauthorized))
			return
		}

		if !user.IsActive {
			response.ResponseError(c, fmt.Errorf("%w: account is deactivated", apperror.ErrUnauthorized))
			return
		}

		if !slices.Contains(roles, user.Role) {
			response.ResponseError(c, fmt.Errorf("%w: %s access required", apperror.ErrForbidden, joinRoles(roles)))
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(entity.RoleAdmin)
}

func joinRoles(roles []entity.Role) string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = strings.ToLower(role.String())
	}
	return strings.Join(names, " or ")
}
