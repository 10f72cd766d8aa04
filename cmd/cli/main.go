package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/vk/mkpipeline/internal/app"
	"github.com/vk/mkpipeline/internal/cli"
	"github.com/vk/mkpipeline/internal/git"
	"github.com/vk/mkpipeline/internal/upload"
)

// main is the entrypoint for the mkpipeline application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Local runs may keep BUILDKITE_* defaults in a .env file.
	_ = godotenv.Load()

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW, logW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	var uploader upload.Uploader
	if appConfig.DryRun {
		uploader = &upload.Writer{W: outW}
	} else {
		uploader = &upload.Agent{Dir: appConfig.RepoDir}
	}

	repo := &git.Repo{Dir: appConfig.RepoDir}
	mkpipelineApp := app.NewApp(outW, logW, appConfig, repo, uploader)

	return mkpipelineApp.Run(context.Background())
}
