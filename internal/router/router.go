package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/config"
	"github.com/zorvex/zorvex-backend/internal/app/controller"
	"github.com/zorvex/zorvex-backend/internal/authz"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/gate"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/pkg/metrics"
)

// Controllers groups every HTTP handler set mounted by the router.
type Controllers struct {
	Auth         *controller.AuthController
	Storefront   *controller.StorefrontController
	Cart         *controller.CartController
	Checkout     *controller.CheckoutController
	Account      *controller.AccountController
	AdminCatalog *controller.AdminCatalogController
	AdminPeople  *controller.AdminPeopleController
	AdminOrders  *controller.AdminOrderController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	profiles       middleware.ProfileReader
	carts          *cartstore.Manager
	authLimiter    *middleware.RateLimiter
	gateTable      gate.Table
	config         *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	profiles middleware.ProfileReader,
	carts *cartstore.Manager,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		profiles:       profiles,
		carts:          carts,
		authLimiter:    authLimiter,
		gateTable:      gate.DefaultTable(),
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(corsConfig(r.config.CORS.AllowedOrigins)))
	router.Use(middleware.NewRouteGate(r.gateTable, r.authMiddleware, r.profiles).Handler())

	r.setupAPIRoutes(router)
	r.setupAuthRoutes(router)
	r.setupStorefrontRoutes(router)
	r.setupAccountRoutes(router)
	r.setupAdminRoutes(router)

	return router
}

func (r *Router) setupAPIRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": r.config.Store.Name + " API is running",
		})
	})
	api.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := api.Group("/v1", r.authMiddleware.Authenticate())
	{
		v1.POST("/rpc/get_my_profile", r.controllers.Account.GetMyProfile)
		v1.GET("/me", r.controllers.Account.GetMyProfile)
	}

	api.GET("/v1/admin/orders/feed",
		r.authMiddleware.AuthenticateSocket(),
		middleware.RequireAdmin(r.profiles),
		r.controllers.AdminOrders.Feed,
	)
}

func (r *Router) setupAuthRoutes(router *gin.Engine) {
	ctrl := r.controllers.Auth

	auth := router.Group("/auth", r.authLimiter.Handler())
	{
		auth.POST("/sign-up", ctrl.SignUp)
		auth.POST("/sign-in", ctrl.SignIn)
		auth.POST("/sign-out", ctrl.SignOut)
		auth.GET("/sign-out", ctrl.SignOut)
		auth.POST("/refresh", ctrl.Refresh)
		auth.POST("/forgot-password", ctrl.ForgotPassword)
		auth.POST("/update-password", ctrl.UpdatePassword)
	}

	for _, path := range []string{"/login", "/signup", "/forgot-password", "/update-password"} {
		router.GET(path, controller.AuthPage)
	}
}

func (r *Router) setupStorefrontRoutes(router *gin.Engine) {
	store := r.controllers.Storefront
	cartSession := middleware.CartSession(r.carts, r.config.Cart.CookieName, r.config.Server.IsProduction())

	router.GET("/", store.Home)
	router.GET("/products", store.ListProducts)
	router.GET("/products/:slug", store.GetProduct)

	cart := router.Group("/cart", cartSession)
	{
		cart.GET("", r.controllers.Cart.GetCart)
		cart.DELETE("", r.controllers.Cart.ClearCart)
		cart.POST("/items", r.controllers.Cart.AddItem)
		cart.PUT("/items/:id", r.controllers.Cart.UpdateItem)
		cart.DELETE("/items/:id", r.controllers.Cart.RemoveItem)
	}

	// The gate has already required a session for /checkout.
	checkout := router.Group("/checkout", cartSession)
	{
		checkout.GET("", r.controllers.Checkout.Summary)
		checkout.POST("", r.controllers.Checkout.PlaceOrder)
	}
}

func (r *Router) setupAccountRoutes(router *gin.Engine) {
	ctrl := r.controllers.Account

	account := router.Group("/account")
	{
		account.GET("", ctrl.Overview)
		account.GET("/orders", ctrl.ListOrders)
		account.GET("/orders/:id", ctrl.GetOrder)
		account.GET("/profile", ctrl.GetProfile)
		account.PUT("/profile", ctrl.UpdateProfile)
	}
}

// setupAdminRoutes mounts the back office. The gate admits only admins here;
// the group checks the session and profile role again so a route the gate
// skips is still closed. RequirePermission checks the role per action.
func (r *Router) setupAdminRoutes(router *gin.Engine) {
	catalog := r.controllers.AdminCatalog
	people := r.controllers.AdminPeople
	orders := r.controllers.AdminOrders
	can := middleware.RequirePermission

	admin := router.Group("/admin",
		r.authMiddleware.Authenticate(),
		middleware.RequireAdmin(r.profiles),
	)
	admin.GET("", orders.Dashboard)

	products := admin.Group("/products")
	{
		products.GET("", catalog.ListProducts)
		products.GET("/:id", catalog.GetProduct)
		products.POST("", can(authz.Products, authz.Create), catalog.CreateProduct)
		products.PUT("/:id", can(authz.Products, authz.Edit), catalog.UpdateProduct)
		products.PATCH("/:id/published", can(authz.Products, authz.TogglePublished), catalog.SetProductPublished)
		products.DELETE("/:id", can(authz.Products, authz.Delete), catalog.DeleteProduct)
	}
	admin.POST("/uploads/presign", can(authz.Products, authz.Edit), catalog.PresignImage)

	categories := admin.Group("/categories")
	{
		categories.GET("", catalog.ListCategories)
		categories.POST("", can(authz.Categories, authz.Create), catalog.CreateCategory)
		categories.PUT("/:id", can(authz.Categories, authz.Edit), catalog.UpdateCategory)
		categories.PATCH("/:id/published", can(authz.Categories, authz.TogglePublished), catalog.SetCategoryPublished)
		categories.DELETE("/:id", can(authz.Categories, authz.Delete), catalog.DeleteCategory)
	}

	coupons := admin.Group("/coupons")
	{
		coupons.GET("", catalog.ListCoupons)
		coupons.POST("", can(authz.Coupons, authz.Create), catalog.CreateCoupon)
		coupons.PUT("/:id", can(authz.Coupons, authz.Edit), catalog.UpdateCoupon)
		coupons.PATCH("/:id/published", can(authz.Coupons, authz.TogglePublished), catalog.SetCouponPublished)
		coupons.DELETE("/:id", can(authz.Coupons, authz.Delete), catalog.DeleteCoupon)
	}

	customers := admin.Group("/customers")
	{
		customers.GET("", people.ListCustomers)
		customers.PUT("/:id", can(authz.Customers, authz.Edit), people.UpdateCustomer)
		customers.DELETE("/:id", can(authz.Customers, authz.Delete), people.DeleteCustomer)
	}
	admin.GET("/customer-orders/:id", people.CustomerOrders)

	staff := admin.Group("/staff")
	{
		staff.GET("", people.ListStaff)
		staff.PUT("/:id", can(authz.Staff, authz.Edit), people.UpdateStaff)
		staff.PATCH("/:id/published", can(authz.Staff, authz.TogglePublished), people.SetStaffPublished)
		staff.DELETE("/:id", can(authz.Staff, authz.Delete), people.DeleteStaff)
	}
	admin.GET("/edit-profile", people.GetEditProfile)
	admin.PUT("/edit-profile", people.UpdateEditProfile)

	orderGroup := admin.Group("/orders")
	{
		orderGroup.GET("", orders.ListOrders)
		orderGroup.GET("/export", can(authz.Orders, authz.Print), orders.ExportOrders)
		orderGroup.GET("/:id", orders.GetOrder)
		orderGroup.PATCH("/:id/status", can(authz.Orders, authz.ChangeStatus), orders.ChangeStatus)
	}
}

// corsConfig reflects allowed origins back with credentials. "*" admits any
// origin.
func corsConfig(allowedOrigins []string) cors.Config {
	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			for _, allowed := range allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}
