package app

import (
	"context"
	"embed"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"Cmprssr/app/services"
	"Cmprssr/internal/core"
	"Cmprssr/pkg/codec"
)

//go:embed all:frontend_dist
var assets embed.FS

// App struct holds the application state and services
type App struct {
	ctx           context.Context
	cancel        context.CancelFunc
	runner        *core.Runner
	emitter       *services.WailsEmitter
	codecService  *services.CodecService
	logService    *services.LogService
	systemService *services.SystemService
	logger        *log.Logger
}

// NewApp creates a new App instance
func NewApp() *App {
	logger := log.New(os.Stderr, "[Cmprssr] ", log.LstdFlags|log.Lshortfile)

	return &App{
		logger: logger,
	}
}

// OnStartup is called when the app starts
func (a *App) OnStartup(ctx context.Context) {
	a.ctx = ctx
	logger := a.logger

	configService, err := services.NewConfigService(logger)
	if err != nil {
		logger.Printf("[App] OnStartup: Failed to create config service: %v", err)
		// Continue without config service
	}

	// Jobs get a child context so shutdown stops an in-flight copy.
	jobCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.runner.SetContext(jobCtx)

	// The bound service instances need their context updated
	a.emitter.SetContext(ctx)
	a.codecService.SetContext(ctx)
	if configService != nil {
		a.codecService.SetConfig(configService)
	}
	a.logService.SetContext(ctx)
	a.systemService.SetContext(ctx)

	logger.Printf("[App] OnStartup: Services initialized")
}

// OnShutdown is called when the app is shutting down
func (a *App) OnShutdown(ctx context.Context) {
	a.logger.Printf("[App] OnShutdown: Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}
	if a.runner != nil {
		a.runner.Wait()
	}

	a.logger.Printf("[App] OnShutdown: Shutdown complete")
}

// Run starts the Wails application
func Run() error {
	appInstance := NewApp()
	logger := appInstance.logger

	// Create a temporary context for service initialization
	// Services will be fully initialized in OnStartup
	ctx := context.Background()

	// Pre-initialize services for binding generation
	// Wails needs these to generate the bindings
	appInstance.emitter = services.NewWailsEmitter(nil)
	appInstance.logService = services.NewLogService(ctx, logger)
	// The log records each event before the frontend hears about it
	appInstance.runner = core.NewRunner(codec.NewGateway(logger), logger, core.WithEmitter(appInstance.logService))
	appInstance.runner.AddEmitter(appInstance.emitter)
	appInstance.codecService = services.NewCodecService(ctx, logger, appInstance.runner)
	appInstance.systemService = services.NewSystemService(ctx, logger)

	err := wails.Run(&options.App{
		Title:  "Cmprssr",
		Width:  500,
		Height: 440,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        appInstance.OnStartup,
		OnShutdown:       appInstance.OnShutdown,
		Bind: []interface{}{
			appInstance.codecService,
			appInstance.logService,
			appInstance.systemService,
		},
	})

	return err
}
