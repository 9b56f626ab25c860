package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
)

// DefaultTargetTriple is the WebAssembly system-interface triple plugins
// are built for.
const DefaultTargetTriple = "wasm32-wasip1"

// CargoBuilder compiles one workspace crate to a WebAssembly binary via the
// package manager's build command.
type CargoBuilder struct {
	runner        interfaces.CommandRunner
	logger        interfaces.Logger
	workspaceRoot string
	triple        string
}

// NewCargoBuilder creates a new builder
func NewCargoBuilder(runner interfaces.CommandRunner, logger interfaces.Logger, workspaceRoot, triple string) *CargoBuilder {
	if triple == "" {
		triple = DefaultTargetTriple
	}
	return &CargoBuilder{
		runner:        runner,
		logger:        logger,
		workspaceRoot: workspaceRoot,
		triple:        triple,
	}
}

// Compile builds the target's package in release mode and returns the path
// of the produced binary under the package manager's standard output layout.
func (b *CargoBuilder) Compile(ctx context.Context, target entities.BuildTarget) (string, error) {
	b.logger.Info("compiling",
		interfaces.F("package", target.PackageName),
		interfaces.F("triple", b.triple))

	result, err := b.runner.Run(ctx, interfaces.Command{
		Name: "cargo",
		Args: []string{"build", "--release", "--target", b.triple, "-p", target.PackageName},
		Dir:  b.workspaceRoot,
	})
	if err != nil {
		return "", fmt.Errorf("build failed for %s: %w", target.PackageName, err)
	}

	b.logger.Debug("compile finished",
		interfaces.F("package", target.PackageName),
		interfaces.F("duration", result.Duration))

	builtPath := filepath.Join(b.workspaceRoot, "target", b.triple, "release", target.ArtifactName+".wasm")
	if _, err := os.Stat(builtPath); err != nil {
		return "", fmt.Errorf("expected build output missing for %s: %w", target.PackageName, err)
	}

	return builtPath, nil
}
