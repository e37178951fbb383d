package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Log       zerolog.Logger
	Gate      *middleware.Gate
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Payments  *handler.PaymentHandler
	Webhooks  *handler.WebhookHandler
	Websocket echo.HandlerFunc
	Ready     *handlers.HealthDependenciesHandler

	CORSOrigins []string

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Route is one entry of the route table.
type Route struct {
	Method  string
	Path    string
	Policy  middleware.Policy
	Handler echo.HandlerFunc
}

// Routes returns the application route table. Every route states its access
// policy explicitly.
func Routes(d Deps) []Route {
	admin := middleware.RequireRoles(domain.RoleAdmin)

	return []Route{
		// --- Auth ---
		{http.MethodPost, "/auth", middleware.Open(), d.Auth.Login},
		{http.MethodGet, "/auth/logout", middleware.Open(), d.Auth.Logout},
		{http.MethodGet, "/auth/me", middleware.Authenticated(), d.Auth.Me},

		// --- Users ---
		{http.MethodPost, "/users", middleware.Open(), d.Users.Create},
		{http.MethodGet, "/users/me", middleware.Authenticated(), d.Users.Me},
		{http.MethodPut, "/users/me", middleware.Authenticated(), d.Users.UpdateMe},
		{http.MethodGet, "/users", admin, d.Users.List},
		{http.MethodGet, "/users/:id", admin, d.Users.Get},
		{http.MethodPut, "/users/:id", admin, d.Users.Update},
		{http.MethodDelete, "/users/:id", admin, d.Users.Delete},

		// --- Payments ---
		{http.MethodPost, "/payments", middleware.Open(), d.Payments.Create},
		{http.MethodPost, "/payments/webhook", middleware.Open(), d.Webhooks.Receive},
		{http.MethodGet, "/payments/ws", middleware.Open(), d.Websocket},
	}
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(corsConfig(d.CORSOrigins)))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "commerce",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/payments/ws"
		},
	}))

	for _, r := range Routes(d) {
		e.Add(r.Method, r.Path, r.Handler, d.Gate.Guard(r.Policy))
	}

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness) // liveness  – is the process alive?
	if d.Ready != nil {
		e.GET("/health/ready", d.Ready.Readiness) // readiness – are dependencies up?
	}
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// corsConfig allows credentials only for an explicit origin list. With no
// origins configured any origin may call, but cookies are not shared.
func corsConfig(origins []string) echomiddleware.CORSConfig {
	cfg := echomiddleware.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"*"}
		cfg.AllowCredentials = false
	}
	return cfg
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
