package server

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/configuration"
	"github.com/ar3/our-gruuv-sub016/pkg/constants"
	"github.com/ar3/our-gruuv-sub016/pkg/httpapi"
	"github.com/ar3/our-gruuv-sub016/pkg/metrics"
	"github.com/ar3/our-gruuv-sub016/pkg/middleware"
	"github.com/ar3/our-gruuv-sub016/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

// Default assembles the shared middleware stack and error handlers around
// the application's registered controllers. Tenant and actor scoping live on
// the API subrouters, not here, so operational endpoints stay reachable
// without an organization header.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application

	app.RegisterMiddleware(
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()),
		middleware.Provide(constants.PoolKey, options.Pool),
		middleware.Cors(options.Configuration.Origin),
		middleware.RequestParams(),
	)

	if options.Configuration.Prometheus.Enabled {
		app.RegisterControllers(
			metrics.NewPrometheusController(options.Configuration.Prometheus.Path),
		)
	}

	return server.NewHTTPServer(app, notFound(), methodNotAllowed()), nil
}

func notFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND",
			"no route for "+r.Method+" "+r.URL.Path, nil)
	})
}

func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			r.Method+" is not allowed on "+r.URL.Path, nil)
	})
}
