package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/gate"
	"github.com/zorvex/zorvex-backend/pkg/metrics"
)

// RouteGate runs the access gate in front of every page route.
type RouteGate struct {
	table    gate.Table
	auth     *AuthMiddleware
	profiles ProfileReader
}

func NewRouteGate(table gate.Table, auth *AuthMiddleware, profiles ProfileReader) *RouteGate {
	return &RouteGate{
		table:    table,
		auth:     auth,
		profiles: profiles,
	}
}

// Handler redirects with 307 when the gate refuses a request. Allowed
// requests with a session carry the user in the context; on admin routes the
// role is the one resolved from the profile.
func (g *RouteGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if g.table.Classify(path) == gate.ClassExcluded {
			c.Next()
			return
		}

		log := GetLoggerFromContext(c)

		claims, err := g.auth.Session(c)
		hasSession := err == nil
		if err != nil && !errors.Is(err, errNoSession) {
			log.Debug("Session lookup failed, treating as signed out", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}

		var resolvedRole string
		resolve := func(ctx context.Context) (string, error) {
			profile, err := g.profiles.GetMyProfile(ctx, claims.UserID)
			if err != nil {
				log.Error("Failed to resolve role for admin route", err, map[string]interface{}{
					"user_id": claims.UserID,
				})
				return "", err
			}
			if profile == nil {
				return "", nil
			}
			resolvedRole = profile.Role
			return profile.Role, nil
		}

		decision := g.table.Decide(c.Request.Context(), path, hasSession, resolve)
		metrics.RecordGateDecision(string(decision.Class), string(decision.Outcome))

		if decision.Outcome != gate.Allow {
			log.Info("Route gate redirect", map[string]interface{}{
				"class":    decision.Class,
				"outcome":  decision.Outcome,
				"location": decision.Location,
			})
			c.Redirect(http.StatusTemporaryRedirect, decision.Location)
			c.Abort()
			return
		}

		if hasSession {
			setUser(c, claims)
			if resolvedRole != "" {
				c.Set(UserRoleKey, resolvedRole)
			}
		}
		c.Next()
	}
}
