package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"
)

// Loader exposes the effective configuration at runtime.
type Loader struct {
	cfg              *ServiceConfig
	out              io.Writer
	configSignalChan chan os.Signal
}

// NewLoader creates a new config loader instance writing dumps to out.
func NewLoader(cfg *ServiceConfig, out io.Writer) *Loader {
	if out == nil {
		out = os.Stdout
	}

	return &Loader{
		cfg:              cfg,
		out:              out,
		configSignalChan: make(chan os.Signal, 1),
	}
}

// WatchConfigSignals dumps the configuration on every SIGUSR1 until ctx is done.
func (l *Loader) WatchConfigSignals(ctx context.Context) {
	signal.Notify(l.configSignalChan, syscall.SIGUSR1)

	go func() {
		defer signal.Stop(l.configSignalChan)

		for {
			select {
			case <-ctx.Done():
				return

			case <-l.configSignalChan:
				l.DumpConfig()
			}
		}
	}()
}

// DumpConfig writes the current configuration as JSON. Secrets are never serialized.
func (l *Loader) DumpConfig() {
	configJSON, err := json.MarshalIndent(l.cfg, "", "  ")
	if err != nil {
		fmt.Fprintf(l.out, "Error marshaling config: %v\n", err)

		return
	}

	fmt.Fprintf(l.out, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", string(configJSON))
}

// Init config from environment variables.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return cfg, nil
}
