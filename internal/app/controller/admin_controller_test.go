package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/authz"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/internal/storage"
	ws "github.com/zorvex/zorvex-backend/internal/websocket"
)

type fakePresigner struct {
	err error
}

func (p *fakePresigner) PresignImageUpload(_ context.Context, folder, filename, _ string) (*storage.PresignedUpload, error) {
	if p.err != nil {
		return nil, p.err
	}
	key := folder + "/" + filename
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.test/" + key + "?X-Amz-Signature=sig",
		FileURL:   "https://cdn.test/" + key,
		Key:       key,
	}, nil
}

type adminFixture struct {
	*testEnv
	admin  *model.User
	images *fakePresigner
}

// router mounts the back-office routes for user, guarding mutations the way
// the application router does.
func (f *adminFixture) router(user *model.User, images ImagePresigner) *gin.Engine {
	catalog := NewAdminCatalogController(f.products, f.categories, f.coupons, images)
	people := NewAdminPeopleController(f.customers, f.staff, f.orders, f.profiles)
	orders := NewAdminOrderController(f.orders, f.dashboard, f.hub, []string{"*"})
	can := middleware.RequirePermission

	router := gin.New()
	admin := router.Group("/admin", asUser(user))
	admin.GET("", orders.Dashboard)

	admin.GET("/products", catalog.ListProducts)
	admin.GET("/products/:id", catalog.GetProduct)
	admin.POST("/products", can(authz.Products, authz.Create), catalog.CreateProduct)
	admin.PUT("/products/:id", can(authz.Products, authz.Edit), catalog.UpdateProduct)
	admin.PATCH("/products/:id/published", can(authz.Products, authz.TogglePublished), catalog.SetProductPublished)
	admin.DELETE("/products/:id", can(authz.Products, authz.Delete), catalog.DeleteProduct)
	admin.POST("/uploads/presign", can(authz.Products, authz.Edit), catalog.PresignImage)

	admin.GET("/categories", catalog.ListCategories)
	admin.POST("/categories", can(authz.Categories, authz.Create), catalog.CreateCategory)
	admin.DELETE("/categories/:id", can(authz.Categories, authz.Delete), catalog.DeleteCategory)

	admin.GET("/coupons", catalog.ListCoupons)
	admin.POST("/coupons", can(authz.Coupons, authz.Create), catalog.CreateCoupon)
	admin.PATCH("/coupons/:id/published", can(authz.Coupons, authz.TogglePublished), catalog.SetCouponPublished)

	admin.GET("/customers", people.ListCustomers)
	admin.PUT("/customers/:id", can(authz.Customers, authz.Edit), people.UpdateCustomer)
	admin.GET("/customer-orders/:id", people.CustomerOrders)

	admin.GET("/staff", people.ListStaff)
	admin.PATCH("/staff/:id/published", can(authz.Staff, authz.TogglePublished), people.SetStaffPublished)
	admin.DELETE("/staff/:id", can(authz.Staff, authz.Delete), people.DeleteStaff)
	admin.GET("/edit-profile", people.GetEditProfile)
	admin.PUT("/edit-profile", people.UpdateEditProfile)

	admin.GET("/orders", orders.ListOrders)
	admin.GET("/orders/export", can(authz.Orders, authz.Print), orders.ExportOrders)
	admin.GET("/orders/:id", orders.GetOrder)
	admin.PATCH("/orders/:id/status", can(authz.Orders, authz.ChangeStatus), orders.ChangeStatus)

	router.GET("/feed", asUser(user), orders.Feed)
	return router
}

func setupAdminControllerTest(t *testing.T) (*adminFixture, *gin.Engine) {
	env := setupControllerTest(t)
	f := &adminFixture{
		testEnv: env,
		admin:   env.createUser(t, "admin@example.com", model.RoleAdmin),
		images:  &fakePresigner{},
	}
	return f, f.router(f.admin, f.images)
}

func (f *adminFixture) placeOrder(t *testing.T, buyer *model.User, product *model.Product, qty int) *model.Order {
	cart := cartstore.New(cartstore.NewMemoryStorage(), cartstore.Key(fmt.Sprint(buyer.ID)), cartstore.WithDebounce(time.Hour))
	cart.Hydrate(context.Background())
	t.Cleanup(cart.Close)
	cart.AddItem(cartstore.Product{ID: fmt.Sprint(product.ID), Name: product.Name, Price: product.SellingPrice}, qty)

	order, err := f.orders.Checkout(context.Background(), buyer.ID, cart, service.CheckoutInput{
		FirstName: "Buyer", LastName: buyer.Email, Email: buyer.Email,
		Address: "1 Main St", City: "Austin", State: "TX", Zip: "73301",
	})
	require.NoError(t, err)
	return order
}

func productBody(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":          name,
		"selling_price": 19.99,
		"cost_price":    7.5,
		"stock":         12,
		"tags":          []string{"new"},
		"published":     true,
	}
}

func TestAdminCatalogController_Products(t *testing.T) {
	f, router := setupAdminControllerTest(t)

	body := productBody("Glass Cleaner 500ml")
	body["category_id"] = f.category.ID

	w := performRequest(router, http.MethodPost, "/admin/products", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "glass-cleaner-500ml", product["slug"])
	id := product["id"]

	t.Run("duplicate slug", func(t *testing.T) {
		w := performRequest(router, http.MethodPost, "/admin/products", body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "PRODUCT_SLUG_EXISTS", decode(t, w)["error"])
	})

	t.Run("unknown category", func(t *testing.T) {
		other := productBody("Other")
		other["category_id"] = 9999
		w := performRequest(router, http.MethodPost, "/admin/products", other)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "CATEGORY_NOT_FOUND", decode(t, w)["error"])
	})

	t.Run("validation", func(t *testing.T) {
		invalid := productBody("")
		invalid["selling_price"] = 0
		invalid["slug"] = "Not A Slug"
		w := performRequest(router, http.MethodPost, "/admin/products", invalid)
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode(t, w)["fields"].(map[string]interface{})
		for _, field := range []string{"name", "selling_price", "slug", "category_id"} {
			assert.Contains(t, fields, field)
		}
	})

	t.Run("toggle published and filter", func(t *testing.T) {
		w := performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/products/%v/published", id), map[string]interface{}{"published": false})
		require.Equal(t, http.StatusOK, w.Code)

		w = performRequest(router, http.MethodGet, "/admin/products?published=false", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["data"], 1)

		w = performRequest(router, http.MethodGet, "/admin/products?published=true", nil)
		assert.Empty(t, decode(t, w)["data"])

		w = performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/products/%v/published", id), map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		updated := productBody("Glass Cleaner 1L")
		updated["category_id"] = f.category.ID
		updated["slug"] = "glass-cleaner-1l"
		w := performRequest(router, http.MethodPut, fmt.Sprintf("/admin/products/%v", id), updated)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "glass-cleaner-1l", decode(t, w)["product"].(map[string]interface{})["slug"])
	})

	t.Run("delete", func(t *testing.T) {
		w := performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/products/%v", id), nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = performRequest(router, http.MethodGet, fmt.Sprintf("/admin/products/%v", id), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAdminCatalogController_MutationsNeedPermission(t *testing.T) {
	f, _ := setupAdminControllerTest(t)
	shopper := f.createUser(t, "shopper@example.com", model.RoleCustomer)
	router := f.router(shopper, f.images)

	body := productBody("Sneaky")
	body["category_id"] = f.category.ID
	w := performRequest(router, http.MethodPost, "/admin/products", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_FORBIDDEN", decode(t, w)["error"])

	w = performRequest(router, http.MethodGet, "/admin/orders/export", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCatalogController_PresignImage(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	req := map[string]interface{}{
		"folder":       "products",
		"filename":     "drill.png",
		"content_type": "image/png",
	}

	w := performRequest(router, http.MethodPost, "/admin/uploads/presign", req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.test/products/drill.png", decode(t, w)["file_url"])

	f.images.err = storage.ErrContentTypeNotAllowed
	w = performRequest(router, http.MethodPost, "/admin/uploads/presign", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UPLOAD_INVALID_FILE_TYPE", decode(t, w)["error"])

	f.images.err = errors.New("signer exploded")
	w = performRequest(router, http.MethodPost, "/admin/uploads/presign", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	unconfigured := f.router(f.admin, nil)
	w = performRequest(unconfigured, http.MethodPost, "/admin/uploads/presign", req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminCatalogController_CategoriesAndCoupons(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	f.createProduct(t, "in-use", 10, 1, true)

	w := performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/categories/%d", f.category.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CATEGORY_IN_USE", decode(t, w)["error"])

	w = performRequest(router, http.MethodPost, "/admin/categories", map[string]interface{}{"name": "Safety Gear"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)["category"].(map[string]interface{})
	assert.Equal(t, "safety-gear", created["slug"])

	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/categories/%v", created["id"]), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(router, http.MethodPost, "/admin/coupons", map[string]interface{}{
		"name": "Too much", "code": "HUGE", "discount_type": "percentage", "discount_value": 150,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPost, "/admin/coupons", map[string]interface{}{
		"name": "Spring", "code": "spring10", "discount_type": "percentage", "discount_value": 10, "published": true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	coupon := decode(t, w)["coupon"].(map[string]interface{})
	assert.Equal(t, "SPRING10", coupon["code"])

	w = performRequest(router, http.MethodPost, "/admin/coupons", map[string]interface{}{
		"name": "Again", "code": "SPRING10", "discount_type": "fixed", "discount_value": 5,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "COUPON_CODE_EXISTS", decode(t, w)["error"])

	w = performRequest(router, http.MethodGet, "/admin/coupons?search=spring", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)
}

func TestAdminPeopleController_Staff(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	colleague := f.createUser(t, "colleague@example.com", model.RoleAdmin)

	w := performRequest(router, http.MethodGet, "/admin/staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 2)

	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/staff/%d", f.admin.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "AUTHZ_SELF_ACTION", decode(t, w)["error"])

	w = performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/staff/%d/published", f.admin.ID), map[string]interface{}{"published": false})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/staff/%d/published", colleague.ID), map[string]interface{}{"published": false})
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/staff/%d", colleague.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(router, http.MethodDelete, fmt.Sprintf("/admin/staff/%d", colleague.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminPeopleController_EditProfile(t *testing.T) {
	_, router := setupAdminControllerTest(t)

	w := performRequest(router, http.MethodPut, "/admin/edit-profile", map[string]interface{}{
		"name":      "Head Admin",
		"phone":     "555-0101",
		"image_url": "https://cdn.test/staff/me.png",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(router, http.MethodGet, "/admin/edit-profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)["profile"].(map[string]interface{})
	assert.Equal(t, "Head Admin", profile["name"])
	assert.Equal(t, "admin", profile["role"])
	assert.Equal(t, "https://cdn.test/staff/me.png", profile["image_url"])
}

func TestAdminPeopleController_Customers(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	buyer := f.createUser(t, "buyer@example.com", model.RoleCustomer)
	product := f.createProduct(t, "gloves", 50, 10, true)
	f.placeOrder(t, buyer, product, 4)

	customer, err := f.customerRepo.FindByUserID(buyer.ID)
	require.NoError(t, err)

	w := performRequest(router, http.MethodGet, "/admin/customers?search=buyer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 1)

	w = performRequest(router, http.MethodPut, fmt.Sprintf("/admin/customers/%d", customer.ID), map[string]interface{}{
		"name":       "Buyer Renamed",
		"email":      "buyer@example.com",
		"store_name": "Corner Shop",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Corner Shop", decode(t, w)["customer"].(map[string]interface{})["store_name"])

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/admin/customer-orders/%d", customer.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, "Buyer Renamed", body["customer"].(map[string]interface{})["name"])

	w = performRequest(router, http.MethodGet, "/admin/customer-orders/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminOrderController(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	buyer := f.createUser(t, "buyer@example.com", model.RoleCustomer)
	product := f.createProduct(t, "gloves", 50, 20, true)
	first := f.placeOrder(t, buyer, product, 4)
	f.placeOrder(t, buyer, product, 5)

	t.Run("dashboard", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/admin", nil)
		require.Equal(t, http.StatusOK, w.Code)
		stats := decode(t, w)["stats"].(map[string]interface{})
		assert.Equal(t, float64(2), stats["total_orders"])
		assert.Equal(t, float64(2), stats["pending_orders"])
		assert.Equal(t, float64(480), stats["total_revenue"])
	})

	t.Run("change status", func(t *testing.T) {
		w := performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", first.ID), map[string]interface{}{"status": "shipped"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = performRequest(router, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/status", first.ID), map[string]interface{}{"status": "delivered"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "delivered", decode(t, w)["order"].(map[string]interface{})["status"])

		w = performRequest(router, http.MethodPatch, "/admin/orders/9999/status", map[string]interface{}{"status": "delivered"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list by status", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/admin/orders?status=pending", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode(t, w)["data"], 1)

		w = performRequest(router, http.MethodGet, "/admin/orders?status=lost", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, fmt.Sprintf("/admin/orders/%d", first.ID), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, first.InvoiceNo, decode(t, w)["order"].(map[string]interface{})["invoice_no"])
	})

	t.Run("export", func(t *testing.T) {
		w := performRequest(router, http.MethodGet, "/admin/orders/export", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="orders-`))

		book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer book.Close()
		rows, err := book.GetRows("Orders")
		require.NoError(t, err)
		assert.Len(t, rows, 3)
		assert.Equal(t, "Invoice No", rows[0][0])
	})
}

func TestAdminOrderController_Feed(t *testing.T) {
	f, router := setupAdminControllerTest(t)
	server := httptest.NewServer(router)
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/feed", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	f.hub.Publish(ws.EventOrderStatusChanged, map[string]interface{}{"invoice_no": "ZX-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, ws.EventOrderStatusChanged, event.Type)
	assert.Equal(t, "ZX-1", event.Data["invoice_no"])
}
