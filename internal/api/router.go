package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	"github.com/dinedorm/server/internal/api/handler"
	"github.com/dinedorm/server/internal/api/middleware"
	"github.com/dinedorm/server/internal/core/ports"
)

const (
	defaultBodyLimit = "1M"
	defaultRateRPS   = 20
)

// Deps is everything the router needs. Services are built by the caller.
type Deps struct {
	Tokens    ports.TokenService
	Users     ports.UserService
	Meals     ports.MealService
	Promotion ports.PromotionService
	Payments  ports.PaymentService
	Catalog   ports.CatalogService
	Probes    map[string]handler.Probe

	Log          zerolog.Logger
	RateLimitRPS float64
	BodyLimit    string
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	bodyLimit := d.BodyLimit
	if bodyLimit == "" {
		bodyLimit = defaultBodyLimit
	}
	rps := d.RateLimitRPS
	if rps <= 0 {
		rps = defaultRateRPS
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "dinedorm",
		Skipper:    skipProbes,
		Registerer: d.Registerer,
	}))
	e.Use(echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Skipper: skipProbes,
		Store:   echomiddleware.NewRateLimiterMemoryStore(rate.Limit(rps)),
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Tokens)
	userHandler := handler.NewUserHandler(d.Users)
	mealHandler := handler.NewMealHandler(d.Meals, d.Promotion)
	paymentHandler := handler.NewPaymentHandler(d.Payments)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)

	authed := middleware.RequireAuth(d.Tokens)
	admin := middleware.RequireAdmin(d.Tokens, d.Users)

	// --- Auth & users ---
	e.POST("/jwt", authHandler.Issue)
	e.POST("/users", userHandler.Signup)
	e.GET("/users", userHandler.List, admin)
	e.GET("/user/:email", userHandler.Get, authed)
	e.GET("/users/admin/:email", userHandler.AdminStatus, authed)
	e.PATCH("/users/admin/:id", userHandler.MakeAdmin, admin)

	// --- Meals ---
	e.GET("/meals", mealHandler.List)
	e.POST("/meals", mealHandler.Create, admin)
	e.GET("/meal/:id", mealHandler.Get)
	e.POST("/meal/:id/like", mealHandler.Like, authed)
	e.GET("/upcoming-meals", mealHandler.ListUpcoming)
	e.POST("/upcoming-meals", mealHandler.CreateUpcoming, admin)
	e.POST("/moveMeal", mealHandler.Promote, admin)

	// --- Catalog ---
	e.GET("/packages", catalogHandler.ListPackages)
	e.GET("/packages/:name", catalogHandler.GetPackage)
	e.POST("/requests", catalogHandler.CreateRequest, authed)
	e.GET("/requests/:email", catalogHandler.ListRequests, authed)
	e.PATCH("/requests/:id/serve", catalogHandler.ServeRequest, admin)
	e.POST("/reviews", catalogHandler.CreateReview, authed)
	e.GET("/reviews/:mealId", catalogHandler.ListReviews)

	// --- Payments ---
	e.POST("/create-payment-intent", paymentHandler.CreateIntent, authed)
	e.POST("/payments", paymentHandler.Record, authed)
	e.GET("/payments/:email", paymentHandler.History, authed)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Probes).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func skipProbes(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
