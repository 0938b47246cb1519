package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/brpaz/echozap"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	oapiMiddleware "github.com/oapi-codegen/echo-middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/menosense/portal/authz"
	"github.com/menosense/portal/config"
	"github.com/menosense/portal/credentials"
	"github.com/menosense/portal/devices"
	internalErrs "github.com/menosense/portal/errors"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/logger"
	"github.com/menosense/portal/metrics"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/profiles/repository"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
	"github.com/menosense/portal/store"
	"github.com/menosense/portal/web"
)

const apiPrefix = "/v1/"

func Start(e *echo.Echo, cfg *config.Config, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(cfg.HttpAddress); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

func SetReady(healthCheck *HealthCheck, db *mongo.Database, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Client().Ping(ctx, nil); err != nil {
				return err
			}

			// It's important this is set after mongo is initialized, which is ensured
			// by taking a dependency on mongo in the constructor, because lifecycle hooks
			// are executed in topological order
			healthCheck.SetReady(true)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			healthCheck.SetReady(false)
			return nil
		},
	})
}

type ServerParams struct {
	fx.In

	Handler     *Handler
	Pages       *web.Handler
	Renderer    *web.Renderer
	HealthCheck *HealthCheck
	Authorizer  authz.RequestAuthorizer
	Sessions    *session.Manager
	Logger      *zap.Logger
}

func NewServer(p ServerParams) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	// Do not validate servers in the open api document
	swagger.Servers = nil

	// Skip sessions, validation and metrics for readiness probe and metrics routes
	skipper := RouteSkipper("/ready", "/metrics")
	requestValidator := oapiMiddleware.OapiRequestValidatorWithOptions(swagger, &oapiMiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: AuthenticationFunc(p.Authorizer),
		},
		Skipper: PrefixSkipper(apiPrefix, skipper),
	})

	e.Use(middleware.Recover())
	e.Use(echozap.ZapLogger(p.Logger))
	e.Use(metrics.Middleware(skipper))
	e.Use(p.Sessions.Middleware(skipper))
	e.Use(requestValidator)

	e.HTTPErrorHandler = internalErrs.CustomHTTPErrorHandler
	e.Renderer = p.Renderer

	e.GET("/ready", p.HealthCheck.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	web.RegisterHandlers(e, p.Pages)
	RegisterHandlers(e, p.Handler)

	return e, nil
}

// AuthenticationFunc evaluates the authorization policy. Requests denied to anonymous users
// are answered with 401 so clients know to sign in.
func AuthenticationFunc(authorizer authz.RequestAuthorizer) openapi3filter.AuthenticationFunc {
	return func(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
		err := authorizer.Authorize(ctx, input)
		if !errors.Is(err, authz.ErrUnauthorized) {
			return err
		}

		if ec := oapiMiddleware.GetEchoContext(ctx); ec != nil && !session.FromContext(ec).IsAuthenticated() {
			return echo.NewHTTPError(http.StatusUnauthorized, "sign in required").SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusForbidden, err.Error()).SetInternal(err)
	}
}

// Dependencies returns the providers shared by the server and the command line tools
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			config.NewConfig,
			store.NewConfig,
			store.NewClient,
			store.NewDatabase,
			repository.NewRepository,
			status.NewBoard,
			profiles.NewService,
			credentials.NewService,
			devices.NewGenerator,
			authz.NewRequestAuthorizer,
			web.NewRenderer,
			web.NewHandler,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
		identity.Module,
		session.Module,
	}
}

func MainLoop() {
	fx.New(
		append(Dependencies(),
			fx.Invoke(SetReady),
			fx.Invoke(Start),
		)...,
	).Run()
}
