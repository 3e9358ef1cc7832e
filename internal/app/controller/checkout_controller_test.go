package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	ws "github.com/zorvex/zorvex-backend/internal/websocket"
)

type checkoutFixture struct {
	*testEnv
	router *gin.Engine
	buyer  *model.User
	gloves *model.Product
	drill  *model.Product
	cartID *http.Cookie
}

func setupCheckoutControllerTest(t *testing.T) *checkoutFixture {
	env := setupControllerTest(t)
	f := &checkoutFixture{
		testEnv: env,
		buyer:   env.createUser(t, "buyer@example.com", model.RoleCustomer),
		gloves:  env.createProduct(t, "gloves", 50, 10, true),
		drill:   env.createProduct(t, "drill", 120, 1, true),
	}

	checkout := NewCheckoutController(env.orders, env.profiles)
	cart := NewCartController(env.products, env.orders)
	account := NewAccountController(env.profiles, env.orders)

	f.router = gin.New()
	signedIn := f.router.Group("", asUser(f.buyer))
	withCart := signedIn.Group("", middleware.CartSession(env.carts, testCartCookie, false))
	withCart.POST("/cart/items", cart.AddItem)
	withCart.GET("/checkout", checkout.Summary)
	withCart.POST("/checkout", checkout.PlaceOrder)
	signedIn.GET("/account", account.Overview)
	signedIn.GET("/account/orders", account.ListOrders)
	signedIn.GET("/account/orders/:id", account.GetOrder)
	signedIn.GET("/account/profile", account.GetProfile)
	signedIn.PUT("/account/profile", account.UpdateProfile)

	w := performRequest(f.router, http.MethodGet, "/checkout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	f.cartID = responseCookie(w, testCartCookie)
	require.NotNil(t, f.cartID)
	return f
}

func (f *checkoutFixture) add(t *testing.T, p *model.Product, qty int) {
	w := performRequest(f.router, http.MethodPost, "/cart/items", map[string]interface{}{
		"product_id": p.ID,
		"quantity":   qty,
	}, f.cartID)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"first_name": "Dana",
		"last_name":  "Smoke",
		"email":      "dana@example.com",
		"phone":      "555-0100",
		"address":    "1 Main St",
		"city":       "Austin",
		"state":      "TX",
		"zip":        "73301",
	}
}

func TestCheckoutController_Summary(t *testing.T) {
	f := setupCheckoutControllerTest(t)
	f.add(t, f.gloves, 1)

	w := performRequest(f.router, http.MethodGet, "/checkout", nil, f.cartID)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	cart := body["cart"].(map[string]interface{})
	assert.Equal(t, float64(50), cart["subtotal"])
	assert.Equal(t, float64(150), cart["shortfall"])
	assert.Equal(t, false, cart["can_checkout"])
	assert.Equal(t, "buyer@example.com", body["profile"].(map[string]interface{})["email"])
}

func TestCheckoutController_PlaceOrder_Success(t *testing.T) {
	f := setupCheckoutControllerTest(t)

	feed := ws.NewClient(f.hub, nil, 99)
	f.hub.Register(feed)
	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	f.add(t, f.gloves, 3)
	f.add(t, f.drill, 1)

	w := performRequest(f.router, http.MethodPost, "/checkout", checkoutBody(), f.cartID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, float64(270), order["subtotal"])
	assert.Equal(t, float64(285), order["total_amount"])
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "cash", order["payment_method"])
	assert.Len(t, order["order_items"], 2)

	summary := decode(t, performRequest(f.router, http.MethodGet, "/checkout", nil, f.cartID))
	assert.Empty(t, summary["cart"].(map[string]interface{})["items"])

	drill, err := f.productRepo.FindByID(f.drill.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, drill.Stock)

	select {
	case raw := <-feed.Send:
		var event ws.Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, ws.EventOrderCreated, event.Type)
	case <-time.After(time.Second):
		t.Fatal("order event not published")
	}
}

func TestCheckoutController_PlaceOrder_Rejects(t *testing.T) {
	t.Run("empty cart", func(t *testing.T) {
		f := setupCheckoutControllerTest(t)
		w := performRequest(f.router, http.MethodPost, "/checkout", checkoutBody(), f.cartID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CART_EMPTY", decode(t, w)["error"])
	})

	t.Run("below minimum", func(t *testing.T) {
		f := setupCheckoutControllerTest(t)
		f.add(t, f.gloves, 1)
		w := performRequest(f.router, http.MethodPost, "/checkout", checkoutBody(), f.cartID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "CART_BELOW_MINIMUM", decode(t, w)["error"])
	})

	t.Run("out of stock keeps the cart", func(t *testing.T) {
		f := setupCheckoutControllerTest(t)
		f.add(t, f.drill, 2)
		w := performRequest(f.router, http.MethodPost, "/checkout", checkoutBody(), f.cartID)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PRODUCT_OUT_OF_STOCK", decode(t, w)["error"])

		summary := decode(t, performRequest(f.router, http.MethodGet, "/checkout", nil, f.cartID))
		assert.Len(t, summary["cart"].(map[string]interface{})["items"], 1)
	})

	t.Run("unknown coupon", func(t *testing.T) {
		f := setupCheckoutControllerTest(t)
		f.add(t, f.gloves, 5)
		body := checkoutBody()
		body["coupon_code"] = "NOPE"
		w := performRequest(f.router, http.MethodPost, "/checkout", body, f.cartID)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "COUPON_INVALID", decode(t, w)["error"])
	})

	t.Run("invalid form", func(t *testing.T) {
		f := setupCheckoutControllerTest(t)
		f.add(t, f.gloves, 5)
		body := checkoutBody()
		delete(body, "city")
		body["payment_method"] = "barter"
		w := performRequest(f.router, http.MethodPost, "/checkout", body, f.cartID)
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode(t, w)["fields"].(map[string]interface{})
		assert.Contains(t, fields, "city")
		assert.Contains(t, fields, "payment_method")
	})
}

func TestAccountController_Orders(t *testing.T) {
	f := setupCheckoutControllerTest(t)
	f.add(t, f.gloves, 4)
	w := performRequest(f.router, http.MethodPost, "/checkout", checkoutBody(), f.cartID)
	require.Equal(t, http.StatusCreated, w.Code)
	mine := decode(t, w)["order"].(map[string]interface{})

	// An order placed by somebody else.
	other := f.createUser(t, "other@example.com", model.RoleCustomer)
	otherCart := cartstore.New(cartstore.NewMemoryStorage(), cartstore.Key("other"), cartstore.WithDebounce(time.Hour))
	otherCart.Hydrate(context.Background())
	t.Cleanup(otherCart.Close)
	otherCart.AddItem(cartstore.Product{ID: fmt.Sprint(f.gloves.ID), Name: "gloves", Price: 50}, 4)
	theirs, err := f.orders.Checkout(context.Background(), other.ID, otherCart, service.CheckoutInput{
		FirstName: "Other", LastName: "Buyer", Email: "other@example.com",
		Address: "2 Side St", City: "Austin", State: "TX", Zip: "73301",
	})
	require.NoError(t, err)

	t.Run("overview", func(t *testing.T) {
		w := performRequest(f.router, http.MethodGet, "/account", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Len(t, body["recent_orders"], 1)
		assert.Equal(t, float64(1), body["total_orders"])
		assert.Equal(t, "buyer@example.com", body["profile"].(map[string]interface{})["email"])
	})

	t.Run("list", func(t *testing.T) {
		w := performRequest(f.router, http.MethodGet, "/account/orders", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w)["data"].([]interface{})
		require.Len(t, data, 1)
		assert.Equal(t, mine["invoice_no"], data[0].(map[string]interface{})["invoice_no"])
	})

	t.Run("own order", func(t *testing.T) {
		w := performRequest(f.router, http.MethodGet, fmt.Sprintf("/account/orders/%v", mine["id"]), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("someone else's order is not found", func(t *testing.T) {
		w := performRequest(f.router, http.MethodGet, fmt.Sprintf("/account/orders/%d", theirs.ID), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ORDER_NOT_FOUND", decode(t, w)["error"])
	})

	t.Run("invalid id", func(t *testing.T) {
		w := performRequest(f.router, http.MethodGet, "/account/orders/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_INVALID_ID", decode(t, w)["error"])
	})
}

func TestAccountController_Profile(t *testing.T) {
	f := setupCheckoutControllerTest(t)

	w := performRequest(f.router, http.MethodPut, "/account/profile", map[string]interface{}{
		"name":       "D",
		"phone":      "123",
		"store_name": "S",
		"address":    "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w)["fields"].(map[string]interface{})
	for _, field := range []string{"name", "phone", "store_name", "address"} {
		assert.Contains(t, fields, field)
	}

	w = performRequest(f.router, http.MethodPut, "/account/profile", map[string]interface{}{
		"name":       "Dana Smoke",
		"phone":      "555-010-0199",
		"store_name": "Smoke & Co",
		"ein":        "12-3456789",
		"address":    "1 Main St, Austin TX",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(f.router, http.MethodGet, "/account/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["profile"].(map[string]interface{})
	assert.Equal(t, "Smoke & Co", profile["store_name"])
	assert.Equal(t, "12-3456789", profile["ein"])
}
