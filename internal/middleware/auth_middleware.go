package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/wordscope-api/pkg/auth"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireAuth проверяет Bearer-токен из заголовка Authorization
// и кладет данные пользователя в контекст
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.require(false)
}

// RequireAuthQueryToken дополнительно принимает токен из query-параметра `token`.
// Только для WebSocket: браузер не может выставить Authorization header при
// открытии соединения. На обычных маршрутах токен в URL попадал бы в access-логи.
func (m *AuthMiddleware) RequireAuthQueryToken() gin.HandlerFunc {
	return m.require(true)
}

func (m *AuthMiddleware) require(allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.extractToken(c, allowQueryToken)
		if !ok {
			return
		}

		claims, err := m.jwtService.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *gin.Context, allowQueryToken bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQueryToken {
			if token := c.Query("token"); token != "" {
				return token, true
			}
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "error_type": "token_missing"})
		c.Abort()
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// UserID извлекает ID аутентифицированного пользователя из контекста Gin
func UserID(c *gin.Context) uint {
	return c.MustGet("user_id").(uint)
}
