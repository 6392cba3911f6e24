package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/stockinfo/internal/clients/kind"
	"github.com/bobmcallan/stockinfo/internal/clients/yahoo"
	"github.com/bobmcallan/stockinfo/internal/common"
	"github.com/bobmcallan/stockinfo/internal/interfaces"
	"github.com/bobmcallan/stockinfo/internal/services/pipeline"
	"github.com/bobmcallan/stockinfo/internal/services/report"
	"github.com/bobmcallan/stockinfo/internal/services/resolver"
)

// App holds the configuration, logger and wired report pipeline.
// It is the shared core used by both cmd/stockinfo-server and cmd/stockinfo.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Pipeline    interfaces.ReportPipeline
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: explicit path, STOCKINFO_CONFIG,
// stockinfo.toml next to the binary, then config/stockinfo.toml.
// Missing files are skipped by LoadConfig so defaults still apply.
func ResolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("STOCKINFO_CONFIG"); env != "" {
		return env
	}
	configPath = filepath.Join(getBinaryDir(), "stockinfo.toml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "config/stockinfo.toml" // fallback for development
	}
	return configPath
}

// NewApp loads configuration and initializes all clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative font path to binary directory
	if config.Report.ChartFont != "" && !filepath.IsAbs(config.Report.ChartFont) {
		if _, err := os.Stat(config.Report.ChartFont); os.IsNotExist(err) {
			config.Report.ChartFont = filepath.Join(getBinaryDir(), config.Report.ChartFont)
		}
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger), nil
}

// NewAppWithConfig wires clients and services from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) *App {
	startupStart := time.Now()

	kindClient := kind.NewClient(
		kind.WithBaseURL(config.Clients.KIND.BaseURL),
		kind.WithLogger(logger),
		kind.WithRateLimit(config.Clients.KIND.RateLimit),
		kind.WithTimeout(config.Clients.KIND.GetTimeout()),
	)

	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithTimezone(config.Clients.Yahoo.Timezone),
		yahoo.WithAutoAdjust(config.Clients.Yahoo.AutoAdjust),
	)

	resolverService := resolver.NewService(kindClient, logger)
	reportService := report.NewService(yahooClient, logger, config.Report)
	pipelineService := pipeline.NewService(resolverService, reportService, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Pipeline:    pipelineService,
		StartupTime: startupStart,
	}

	logger.Debug().
		Str("kind", config.Clients.KIND.BaseURL).
		Str("yahoo", config.Clients.Yahoo.BaseURL).
		Dur("elapsed", time.Since(startupStart)).
		Msg("App initialized")

	return a
}
