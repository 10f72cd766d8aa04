package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vk/mkpipeline/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("mkpipeline", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
mkpipeline - Trim unchanged steps from a CI pipeline and upload the result.

Usage:
  mkpipeline [options] [PIPELINE_PATH]

Arguments:
  PIPELINE_PATH
    Path to the pipeline definition template (YAML).

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline definition template.")
	repoFlag := flagSet.String("repo", ".", "Path to the repository root.")
	remoteFlag := flagSet.String("remote", "origin", "Remote the base branch lives on.")
	baseBranchFlag := flagSet.String("base-branch", "master", "Branch changes are detected against.")
	branchFlag := flagSet.String("branch", os.Getenv("BUILDKITE_BRANCH"), "Branch being built. Defaults to $BUILDKITE_BRANCH.")
	tagFlag := flagSet.String("tag", os.Getenv("BUILDKITE_TAG"), "Tag being built, if any. Defaults to $BUILDKITE_TAG.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Write the final pipeline to stdout instead of uploading it.")
	workersFlag := flagSet.Int("workers", 8, "Number of concurrent change-detection queries.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := *pipelineFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Pipeline path determined.", "path", path)

	if path == "" {
		slog.Debug("No pipeline path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePath: path,
		RepoDir:      *repoFlag,
		Remote:       *remoteFlag,
		BaseBranch:   *baseBranchFlag,
		Branch:       *branchFlag,
		Tag:          *tagFlag,
		DryRun:       *dryRunFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
