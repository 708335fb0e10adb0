package httpserver

import (
	"context"
	"errors"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
	"storefront/internal/metrics"
	cartsvc "storefront/internal/service/cart"
	ordersvc "storefront/internal/service/order"
	usersvc "storefront/internal/service/user"
)

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type productService interface {
	ListByCategory(ctx context.Context, rawCategoryID string) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type cartService interface {
	ToggleItem(ctx context.Context, userID string, in cartsvc.ToggleInput) (*cartsvc.ToggleResult, error)
	GetCart(ctx context.Context, userID string) (*cartsvc.CartView, error)
	ClearCart(ctx context.Context, userID string) error
}

type userService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*usersvc.LoginResult, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, userID string) (*domain.Order, error)
	GetOrderHistory(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrderDetails(ctx context.Context, userID, orderID string) (*ordersvc.Details, error)
}

type tokenVerifier interface {
	Verify(raw string) (string, error)
}

// Deps bundles the services the router dispatches to.
type Deps struct {
	CategorySvc categoryService
	ProductSvc  productService
	CartSvc     cartService
	UserSvc     userService
	OrderSvc    orderService
	Tokens      tokenVerifier
	Stores      []Pinger
	Metrics     *metrics.Metrics
	CORSOrigins []string
}

func (d Deps) validate() error {
	var errs []error
	if d.CategorySvc == nil || d.ProductSvc == nil {
		errs = append(errs, errors.New("catalog services are required"))
	}
	if d.CartSvc == nil || d.OrderSvc == nil {
		errs = append(errs, errors.New("cart and order services are required"))
	}
	if d.UserSvc == nil || d.Tokens == nil {
		errs = append(errs, errors.New("user service and token verifier are required"))
	}
	return errors.Join(errs...)
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	registerValidatorTagNames()

	router := gin.New()
	router.Use(
		requestLogger(logger, deps.Metrics),
		gin.CustomRecovery(recoverHandler),
		cors.New(corsConfig(deps.CORSOrigins)),
	)

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Stores))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handlers{deps: deps}
	api := router.Group("/api")
	api.GET("/category", h.listCategories)
	api.GET("/getProducts/:categoryId", h.listProducts)
	api.GET("/getSingle/:productId", h.getProduct)
	api.POST("/register", h.register)
	api.POST("/login", h.login)

	authed := api.Group("", authMiddleware(deps.Tokens))
	authed.GET("/me", h.me)
	authed.POST("/addToCart", h.toggleItem)
	authed.GET("/getCart", h.getCart)
	authed.DELETE("/cart", h.clearCart)
	authed.POST("/placeOrder", h.placeOrder)
	authed.GET("/getOrderHistory", h.orderHistory)
	authed.GET("/getOrderDetails/:id", h.orderDetails)

	router.NoRoute(func(c *gin.Context) {
		writeError(c, errRouteNotFound)
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

type handlers struct {
	deps Deps
}
