package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/chaingate/go-chaingate/internal/gateway"
	"github.com/chaingate/go-chaingate/internal/router/controllers"
	"github.com/chaingate/go-chaingate/internal/router/middlewares"
)

// ConfiguredRouter returns a fully configured Router that can be used as an http handler.
func ConfiguredRouter(
	g gateway.Gateway,
	maxRPI uint64,
	rateLimInterval time.Duration,
) (*Router, error) {
	instrGateway, err := gateway.NewInstrumentedGateway(g)
	if err != nil {
		return nil, fmt.Errorf("instrumenting gateway: %s", err)
	}
	controller := controllers.NewController(instrGateway)

	// General router configuration.
	router := NewRouter()
	router.Use(middlewares.CORS, middlewares.TraceID)

	rateLim, err := middlewares.RateLimitController(middlewares.RateLimiterConfig{
		MaxRPI:   maxRPI,
		Interval: rateLimInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating rate limit controller middleware: %s", err)
	}

	// API routes configuration.
	router.Post("/api/v1/nonce", controller.AllocateNonce, middlewares.WithLogging, middlewares.OtelHTTP("AllocateNonce"), rateLim)        // nolint
	router.Post("/api/v1/balances", controller.GetBalances, middlewares.WithLogging, middlewares.OtelHTTP("GetBalances"), rateLim)         // nolint
	router.Post("/api/v1/allowances", controller.GetAllowances, middlewares.WithLogging, middlewares.OtelHTTP("GetAllowances"), rateLim)   // nolint
	router.Post("/api/v1/approve", controller.Approve, middlewares.WithLogging, middlewares.OtelHTTP("Approve"), rateLim)                  // nolint
	router.Get("/api/v1/poll/{txnHash}", controller.PollTransaction, middlewares.WithLogging, middlewares.OtelHTTP("PollTransaction"), rateLim) // nolint
	router.Get("/api/v1/version", controller.Version, middlewares.WithLogging, middlewares.OtelHTTP("Version"), rateLim)                   // nolint

	// Health endpoint configuration.
	router.Get("/healthz", controllers.HealthHandler)
	router.Get("/health", controllers.HealthHandler)

	return router, nil
}

// Router provides a nice api around mux.Router.
type Router struct {
	r *mux.Router
}

// NewRouter is a Mux HTTP router constructor.
func NewRouter() *Router {
	r := mux.NewRouter()
	r.PathPrefix("/").Methods(http.MethodOptions) // accept OPTIONS on all routes and do nothing
	return &Router{r: r}
}

// Get creates a subroute on the specified URI that only accepts GET. You can provide specific middlewares.
func (r *Router) Get(uri string, f func(http.ResponseWriter, *http.Request), mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodGet)
	sub.Use(mid...)
}

// Post creates a subroute on the specified URI that only accepts POST. You can provide specific middlewares.
func (r *Router) Post(uri string, f func(http.ResponseWriter, *http.Request), mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodPost)
	sub.Use(mid...)
}

// Use adds middlewares to all routes. Should be used when a middleware should be execute all all routes (e.g. CORS).
func (r *Router) Use(mid ...mux.MiddlewareFunc) {
	r.r.Use(mid...)
}

// Handler returns the configured router http handler.
func (r *Router) Handler() http.Handler {
	return r.r
}
