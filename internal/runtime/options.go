package runtime

import (
	"os"

	"github.com/architeacher/svc-task-runner/internal/config"
)

type RunnerOption func(*RunnerCtx)

func WithRunnerTermination(ch chan os.Signal) RunnerOption {
	return func(ctx *RunnerCtx) {
		ctx.shutdownChannel = ch
	}
}

// WithConfig skips loading the configuration from the environment.
func WithConfig(cfg *config.ServiceConfig) RunnerOption {
	return func(ctx *RunnerCtx) {
		ctx.cfg = cfg
	}
}

// WithDependencyOptions applies opts after the default dependency options.
func WithDependencyOptions(opts ...DependencyOption) RunnerOption {
	return func(ctx *RunnerCtx) {
		ctx.dependencyOptions = append(ctx.dependencyOptions, opts...)
	}
}
