package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/filmdeck/filmdeck/internal/api/scans"
	"github.com/filmdeck/filmdeck/internal/api/settings"
	"github.com/filmdeck/filmdeck/internal/api/videos"
	"github.com/filmdeck/filmdeck/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin-wrapper around the Echo HTTP router. Its sole
	// responsibility is to create the routes the application exposes and to
	// shut the router down when the parent context is cancelled.
	RestGateway struct {
		config             *RestConfig
		ec                 *echo.Echo
		videoController    controller
		scanController     controller
		settingsController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with all the
// routes defined by the various controllers. Each controller requires access
// to the services backing its routes, which are provided as arguments.
func NewRestGateway(
	config *RestConfig,
	videoStore videos.Store,
	playerLauncher videos.Player,
	subtitleFinder videos.SubtitleFinder,
	scanService scans.ScanService,
	settingsService settings.SettingsService,
) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	validate := validator.New()
	gateway := &RestGateway{
		config:             config,
		ec:                 ec,
		videoController:    videos.New(validate, videoStore, playerLauncher, subtitleFinder),
		scanController:     scans.New(validate, scanService),
		settingsController: settings.New(validate, settingsService),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Pre(middleware.AddTrailingSlash())

	videoGroup := ec.Group("/api/filmdeck/v1/videos")
	gateway.videoController.SetRoutes(videoGroup)

	scanGroup := ec.Group("/api/filmdeck/v1/scans")
	gateway.scanController.SetRoutes(scanGroup)

	settingsGroup := ec.Group("/api/filmdeck/v1/settings")
	gateway.settingsController.SetRoutes(settingsGroup)

	return gateway
}

func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	log.Emit(logger.INFO, "Starting HTTP router on %s\n", gateway.config.HostAddr)

	// Start echo router
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(fmt.Errorf("HTTP router closed: %w", err))
		}
	}()

	// Start thread to listen for context cancellation
	go func(ec *echo.Echo) {
		<-ctx.Done()
		ec.Close()
	}(gateway.ec)

	wg.Wait()

	// Return cancellation cause if any, otherwise nil as parent context
	// cancellation is not an error case we should report.
	if cause := context.Cause(ctx); cause != ctx.Err() {
		return cause
	}

	return nil
}
