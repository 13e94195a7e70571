package handlers

import (
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/health"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/kvs"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/middleware"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/repositories"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/services"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

// Dependencies are everything the HTTP surface serves from
type Dependencies struct {
	AppName      string
	Version      string
	AllowOrigins []string
	AllowMethods []string
	Logger       ectologger.Logger

	Store        *storage.Store
	KVS          kvs.Store
	Integrations *services.IntegrationsService
	Social       *services.SocialMediaService
	Pages        *repositories.SocialMediaPageRepository
	Posts        *repositories.SocialMediaPostRepository
	Campaigns    *repositories.SocialMediaCampaignRepository
	Sessions     *kvs.SessionStore
}

// NewRouter builds the echo instance with middleware, probes, metrics and
// the /api/v1 routes
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(deps.Logger)

	if deps.AppName != "" {
		e.Use(otelecho.Middleware(deps.AppName))
	}
	e.Use(middleware.Context(func() string { return string(deps.Store.Mode()) }))
	e.Use(middleware.Logger(deps.Logger))
	e.Use(echomiddleware.Recover())
	if len(deps.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: deps.AllowOrigins,
			AllowMethods: deps.AllowMethods,
		}))
	}

	health.NewChecker(deps.Store, deps.KVS, deps.Version).RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	NewIntegrationHandler(deps.Integrations).RegisterRoutes(api)
	NewSocialMediaHandler(deps.Pages, deps.Posts, deps.Campaigns, deps.Social).RegisterRoutes(api)
	if deps.Sessions != nil {
		NewSessionHandler(deps.Sessions, deps.Logger).RegisterRoutes(api)
	}

	return e
}
