package app

import "github.com/pkg/errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PipelinePath locates the pipeline definition template.
	PipelinePath string
	// RepoDir is the repository root; artifact manifests are discovered
	// under it and git runs inside it.
	RepoDir string

	// Remote and BaseBranch name the base reference for change detection.
	Remote     string
	BaseBranch string

	// Branch and Tag describe what is being built. Building the base
	// branch or a release tag disables trimming.
	Branch string
	Tag    string

	// DryRun writes the final document to the output writer instead of
	// uploading it.
	DryRun bool

	LogFormat string
	LogLevel  string
	// Workers bounds the concurrent per-step diff queries.
	Workers int
}

// NewConfig validates a Config and fills in unset defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.RepoDir == "" {
		cfg.RepoDir = "."
	}
	if cfg.Remote == "" {
		cfg.Remote = "origin"
	}
	if cfg.BaseBranch == "" {
		cfg.BaseBranch = "master"
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &cfg, nil
}
