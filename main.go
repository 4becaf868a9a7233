package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hyperleaf/adapters/api"
	"hyperleaf/adapters/browser"
	"hyperleaf/adapters/pdf"
	"hyperleaf/app"
	"hyperleaf/domain/core"
	"hyperleaf/internal"
	"hyperleaf/internal/config"
	"hyperleaf/internal/i18n"
	"hyperleaf/ui"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel))
	internal.DefaultLogger = logger
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientConfig := api.DefaultClientConfig()
	clientConfig.BaseURL = appConfig.API.BaseURL
	if appConfig.API.Timeout > 0 {
		clientConfig.Timeout = appConfig.API.Timeout
	}
	client, err := api.NewClient(clientConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create prediction client: %v", err)
	}

	bundle, err := i18n.Load()
	if err != nil {
		log.Fatalf("Failed to load translations: %v", err)
	}

	reports := app.NewReportRegistry(appConfig.Report.TTL, core.SystemClock{}, logger)
	go reports.Run(ctx, time.Minute)

	browsers := app.NewHistoryBrowsers(client, logger)
	defer browsers.CloseAll()

	var exporter *app.SnapshotExporter
	if appConfig.Export.Enabled {
		printer, err := ui.NewPrintRenderer(appConfig.Report.EchartsAssetHost)
		if err != nil {
			log.Fatalf("Failed to prepare print templates: %v", err)
		}

		rasterizer := browser.NewRasterizer(browser.Config{
			Bin:         appConfig.Browser.Bin,
			DebuggerURL: appConfig.Browser.DebuggerURL,
			Headless:    appConfig.Browser.Headless,
			Timeout:     appConfig.Browser.Timeout,
		}, logger)
		defer rasterizer.Close()

		exporter = app.NewSnapshotExporter(printer, rasterizer, pdf.NewWriter(), core.SystemClock{}, app.ExportConfig{
			Scale:         appConfig.Export.Scale,
			Background:    appConfig.Export.Background,
			FilePrefix:    appConfig.Export.FilePrefix,
			ViewportWidth: appConfig.Export.ViewportWidth,
		}, logger)
	}

	server, err := ui.NewServer(ui.Deps{
		API:      client,
		Analysis: app.NewAnalysisService(client, logger),
		Reports:  reports,
		Exporter: exporter,
		Browsers: browsers,
		I18n:     bundle,
		Logger:   logger,
	}, ui.Options{
		GinMode:          appConfig.Server.GinMode,
		DefaultToken:     appConfig.API.DefaultToken,
		ExportEnabled:    appConfig.Export.Enabled,
		EchartsAssetHost: appConfig.Report.EchartsAssetHost,
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HyperLeaf report server on port %s (prediction API %s)", appConfig.Server.Port, appConfig.API.BaseURL)
		errCh <- server.Start(":" + appConfig.Server.Port)
	}()

	select {
	case err := <-errCh:
		logger.Error("server stopped: %v", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}
