package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
)

const (
	cartKey = "cart"

	cartCookieMaxAge = int(365 * 24 * time.Hour / time.Second)
)

// CartSession attaches the cart of the requesting browser, issuing a new cart
// id cookie when the request has none or an invalid one.
func CartSession(manager *cartstore.Manager, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := c.Cookie(cookieName)
		if err != nil || uuid.Validate(cartID) != nil {
			cartID = uuid.NewString()
			GetLoggerFromContext(c).Debug("Issuing new cart id", map[string]interface{}{
				"cart_id": cartID,
			})
		}

		// Refresh the cookie on every request so active carts never expire.
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, cartID, cartCookieMaxAge, "/", "", secure, true)

		c.Set(cartKey, manager.Get(c.Request.Context(), cartID))
		c.Next()
	}
}

// GetCart returns the cart attached by CartSession.
func GetCart(c *gin.Context) (*cartstore.Store, bool) {
	v, exists := c.Get(cartKey)
	if !exists {
		return nil, false
	}
	store, ok := v.(*cartstore.Store)
	return store, ok
}
