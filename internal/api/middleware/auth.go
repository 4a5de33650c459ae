package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/response"
)

const actorKey = "auth.actor"

// Auth validates the bearer token and stores the resulting actor on the
// request context.
func Auth(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		claims, err := users.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}
		c.Set(actorKey, service.Actor{
			ID:          claims.UserID,
			Roles:       claims.Roles,
			IsSuperuser: claims.IsSuperuser,
		})
		c.Next()
	}
}

// ActorFrom returns the authenticated actor placed by Auth.
func ActorFrom(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(service.Actor); ok {
			return actor
		}
	}
	return service.Actor{}
}

// RequireRole rejects requests whose actor holds none of the named roles.
// Superusers pass.
func RequireRole(roles ...string) gin.HandlerFunc {
	want := make(map[string]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor.IsSuperuser {
			c.Next()
			return
		}
		for _, r := range actor.Roles {
			if want[r] {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
		c.Abort()
	}
}
