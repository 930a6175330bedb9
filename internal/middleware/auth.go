package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/GSA/notifications-admin-sub001/internal/model"
)

const (
	// SessionCookie carries the signed session token minted by the identity
	// layer after sign-in.
	SessionCookie = "notify_admin_session"

	contextUserKey = "current_user"
)

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(sessionSecret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(sessionSecret)}
}

// Authenticate verifies the session token and sets the current user in the
// request context. The identity provider integration happens upstream; this
// only unpacks the user id and permission set it yielded.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not signed in"})
			return
		}

		user, err := m.parseSession(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid session"})
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (m *AuthMiddleware) parseSession(tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, fmt.Errorf("session has no user_id")
	}

	user := &model.User{ID: userID, Permissions: map[string][]string{}}
	if perms, ok := claims["permissions"].(map[string]interface{}); ok {
		for serviceID, raw := range perms {
			list, ok := raw.([]interface{})
			if !ok {
				continue
			}
			for _, p := range list {
				if s, ok := p.(string); ok {
					user.Permissions[serviceID] = append(user.Permissions[serviceID], s)
				}
			}
		}
	}
	return user, nil
}

// CurrentUser returns the authenticated user set by Authenticate.
func CurrentUser(c *gin.Context) *model.User {
	if user, exists := c.Get(contextUserKey); exists {
		return user.(*model.User)
	}
	return &model.User{Permissions: map[string][]string{}}
}

// RequirePermission rejects requests where the current user lacks the named
// permission on the service in the route. The response does not reveal
// whether the service exists.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		serviceID := c.Param("sid")
		if !CurrentUser(c).HasPermission(serviceID, permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "permission denied"})
			return
		}
		c.Next()
	}
}
