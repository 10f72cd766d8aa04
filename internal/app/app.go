package app

import (
	"io"
	"log/slog"

	"github.com/vk/mkpipeline/internal/trim"
	"github.com/vk/mkpipeline/internal/upload"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logW     io.Writer
	logger   *slog.Logger
	config   *Config
	vcs      trim.VCS
	uploader upload.Uploader
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. outW carries only
// what the user asked for (usage text, the dry-run document); logs and the
// informational selection output go to logW. The version-control and upload
// collaborators are injected so tests can substitute fakes.
func NewApp(outW, logW io.Writer, config *Config, vcs trim.VCS, uploader upload.Uploader) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logW:     logW,
		logger:   logger,
		config:   config,
		vcs:      vcs,
		uploader: uploader,
	}
}
