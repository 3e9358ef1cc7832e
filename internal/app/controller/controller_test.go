package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/db"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	ws "github.com/zorvex/zorvex-backend/internal/websocket"
	"github.com/zorvex/zorvex-backend/pkg/mailer"
	"github.com/zorvex/zorvex-backend/pkg/redis"
	"github.com/zorvex/zorvex-backend/pkg/util"
	"github.com/zorvex/zorvex-backend/pkg/validation"
	"gorm.io/gorm"
)

const (
	testJWTSecret  = "controller-test-secret"
	testPassword   = "Password1!"
	testCartCookie = "cart_id"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

type testEnv struct {
	db    *gorm.DB
	redis *miniredis.Miniredis
	mail  *mailer.LogMailer
	hub   *ws.Hub
	carts *cartstore.Manager

	userRepo     repository.UserRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository

	auth       service.AuthService
	resets     service.PasswordResetService
	profiles   service.ProfileService
	products   service.ProductService
	categories service.CategoryService
	coupons    service.CouponService
	customers  service.CustomerService
	staff      service.StaffService
	orders     service.OrderService
	dashboard  service.DashboardService

	authMiddleware *middleware.AuthMiddleware
	category       *model.Category
}

func setupControllerTest(t *testing.T) *testEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	redis.SetClient(client)
	t.Cleanup(func() {
		redis.SetClient(nil)
		client.Close()
	})

	hub := ws.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	carts := cartstore.NewManager(cartstore.NewMemoryStorage(), cartstore.WithDebounce(time.Hour))
	t.Cleanup(carts.CloseAll)

	env := &testEnv{
		db:           testDB,
		redis:        mr,
		mail:         &mailer.LogMailer{},
		hub:          hub,
		carts:        carts,
		userRepo:     repository.NewUserRepository(testDB),
		productRepo:  repository.NewProductRepository(testDB),
		customerRepo: repository.NewCustomerRepository(testDB),
	}

	categoryRepo := repository.NewCategoryRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)

	env.profiles = service.NewProfileService(env.userRepo, env.customerRepo, client, 5*time.Minute)
	env.auth = service.NewAuthService(env.userRepo, env.profiles, testJWTSecret, 15*time.Minute, 24*time.Hour)
	env.resets = service.NewPasswordResetService(
		repository.NewPasswordResetRepository(testDB), env.userRepo, env.mail, "http://shop.test", "Zorvex",
	)
	env.products = service.NewProductService(env.productRepo, categoryRepo)
	env.categories = service.NewCategoryService(categoryRepo)
	env.coupons = service.NewCouponService(repository.NewCouponRepository(testDB))
	env.customers = service.NewCustomerService(env.customerRepo, env.profiles)
	env.staff = service.NewStaffService(env.userRepo, env.profiles)
	env.orders = service.NewOrderService(orderRepo, env.customerRepo, env.coupons, hub, testDB, service.CheckoutSettings{
		MinOrderValue: 200,
		ShippingCost:  15,
	})
	env.dashboard = service.NewDashboardService(orderRepo, env.productRepo, env.customerRepo)
	env.authMiddleware = middleware.NewAuthMiddleware(env.auth)

	env.category = &model.Category{Name: "Supplies", Slug: "supplies", Published: true}
	require.NoError(t, categoryRepo.Create(env.category))

	return env
}

func (env *testEnv) createUser(t *testing.T, email string, role model.UserRole) *model.User {
	hash, err := util.HashPassword(testPassword)
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "User " + email, Role: role}
	if role == model.RoleCustomer {
		require.NoError(t, env.userRepo.CreateWithCustomer(user, &model.Customer{Name: user.Name, Email: email}))
	} else {
		require.NoError(t, env.userRepo.Create(user))
	}
	return user
}

func (env *testEnv) createProduct(t *testing.T, slug string, price float64, stock int, published bool) *model.Product {
	product := &model.Product{
		Name:         slug,
		Slug:         slug,
		SellingPrice: price,
		Stock:        stock,
		CategoryID:   env.category.ID,
		Published:    published,
	}
	require.NoError(t, env.productRepo.Create(product))
	return product
}

// asUser stands in for the auth middleware.
func asUser(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.UserEmailKey, user.Email)
		c.Set(middleware.UserRoleKey, string(user.Role))
		c.Next()
	}
}

func performRequest(router http.Handler, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
