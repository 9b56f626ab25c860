// Package orchestrators coordinates the provisioning, discovery and
// per-target build pipelines of a run.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
)

// ToolProvisioner interface for installing the external toolchains
type ToolProvisioner interface {
	InstallToolchains(ctx context.Context) ([]string, error)
}

// SearchPath interface for extending the executable search path
type SearchPath interface {
	Prepend(dirs ...string)
}

// TargetDiscoverer interface for enumerating buildable plugin crates
type TargetDiscoverer interface {
	DiscoverTargets(ctx context.Context, workspaceRoot string) ([]entities.BuildTarget, error)
}

// Compiler interface for building one crate to a WebAssembly binary
type Compiler interface {
	Compile(ctx context.Context, target entities.BuildTarget) (string, error)
}

// Optimizer interface for the external size/speed optimizer
type Optimizer interface {
	Optimize(ctx context.Context, src, dst, level string) error
}

// Stripper interface for removing debug/symbol information in place
type Stripper interface {
	Strip(ctx context.Context, path string) error
}

// ChecksumRecorder interface for hashing final artifacts
type ChecksumRecorder interface {
	Record(path string) (string, error)
}

// BuildOrchestrator coordinates the complete plugin build workflow
type BuildOrchestrator struct {
	provisioner ToolProvisioner
	searchPath  SearchPath
	discoverer  TargetDiscoverer
	compiler    Compiler
	optimizer   Optimizer
	stripper    Stripper
	checksums   ChecksumRecorder
	logger      interfaces.Logger

	workspaceRoot string
	outputDir     string
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	WorkspaceRoot string
	OutputDir     string
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	provisioner ToolProvisioner,
	searchPath SearchPath,
	discoverer TargetDiscoverer,
	compiler Compiler,
	optimizer Optimizer,
	stripper Stripper,
	checksums ChecksumRecorder,
	logger interfaces.Logger,
	config BuildOrchestratorConfig,
) *BuildOrchestrator {
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "builds"
	}

	return &BuildOrchestrator{
		provisioner:   provisioner,
		searchPath:    searchPath,
		discoverer:    discoverer,
		compiler:      compiler,
		optimizer:     optimizer,
		stripper:      stripper,
		checksums:     checksums,
		logger:        logger,
		workspaceRoot: config.WorkspaceRoot,
		outputDir:     outputDir,
	}
}

// RunReport contains the result of a complete run
type RunReport struct {
	Targets   int
	Artifacts []entities.Artifact
	Duration  time.Duration
}

// Run executes the full workflow: create the output directory, install
// toolchains, discover targets, then build/optimize/strip/hash every
// target concurrently. The first error fails the run; sibling pipelines
// already in flight are not cancelled mid-subprocess, but their artifacts
// are not reported.
func (o *BuildOrchestrator) Run(ctx context.Context) (*RunReport, error) {
	startTime := time.Now()

	// Refuse to overwrite a previous run's artifacts. This happens before
	// any subprocess is invoked.
	outDir := filepath.Join(o.workspaceRoot, o.outputDir)
	if err := os.Mkdir(outDir, 0750); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("output directory %s already exists", outDir)
		}
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	// Both toolchains must be installed and on the search path before any
	// build starts; Prepend happens-before every pipeline goroutine.
	binDirs, err := o.provisioner.InstallToolchains(ctx)
	if err != nil {
		return nil, err
	}
	o.searchPath.Prepend(binDirs...)

	targets, err := o.discoverer.DiscoverTargets(ctx, o.workspaceRoot)
	if err != nil {
		return nil, err
	}

	report := &RunReport{Targets: len(targets)}
	if len(targets) == 0 {
		o.logger.Info("no plugin crates found, nothing to build")
		report.Duration = time.Since(startTime)
		return report, nil
	}

	var mu sync.Mutex

	// Per-target pipelines are independent; the group deliberately does
	// not carry a cancelling context, so one target's failure never kills
	// a sibling's in-flight subprocess.
	g := new(errgroup.Group)
	for _, target := range targets {
		g.Go(func() error {
			artifact, err := o.buildOne(ctx, target, outDir)
			if err != nil {
				return err
			}
			mu.Lock()
			report.Artifacts = append(report.Artifacts, *artifact)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(startTime)
	return report, nil
}

// buildOne runs one target's strictly ordered pipeline:
// build, optimize, strip, hash.
func (o *BuildOrchestrator) buildOne(ctx context.Context, target entities.BuildTarget, outDir string) (*entities.Artifact, error) {
	builtPath, err := o.compiler.Compile(ctx, target)
	if err != nil {
		return nil, err
	}

	finalPath := filepath.Join(outDir, target.ArtifactName+".wasm")
	if err := o.optimizer.Optimize(ctx, builtPath, finalPath, target.OptLevel); err != nil {
		return nil, err
	}

	if err := o.stripper.Strip(ctx, finalPath); err != nil {
		return nil, err
	}

	sum, err := o.checksums.Record(finalPath)
	if err != nil {
		return nil, err
	}

	o.logger.Info("plugin built",
		interfaces.F("artifact", target.ArtifactName+".wasm"),
		interfaces.F("sha256", sum))

	return &entities.Artifact{
		Target:   target,
		Path:     finalPath,
		Checksum: sum,
	}, nil
}
