// Package main provides the wasmforge CLI, the CI build step that turns a
// Cargo workspace into optimized WebAssembly plugin artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"wasmforge/internal/domain-adapters/gateways"
	orchestrators "wasmforge/internal/domain-orchestrators"
	"wasmforge/internal/domain/entities"
	"wasmforge/internal/external-adapters/gpg"
	"wasmforge/internal/external-adapters/logging"
	"wasmforge/internal/external-adapters/yaml"
)

func runBuild(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		workspace    = fs.String("workspace", defaultWorkspace(), "Workspace root (defaults to $GITHUB_WORKSPACE)")
		outputDir    = fs.String("output-dir", "builds", "Output directory for plugin artifacts, relative to the workspace")
		manifestPath = fs.String("toolchains", "", "Toolchain manifest YAML (defaults to the built-in manifest)")
		triple       = fs.String("target", gateways.DefaultTargetTriple, "Cargo target triple")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: wasmforge build [options]

Compile every cdylib crate in the workspace to WebAssembly, optimize and
strip the binaries, and record SHA-256 checksums next to them.

Examples:
  wasmforge build                          # CI defaults: $GITHUB_WORKSPACE, builds/
  wasmforge build --workspace ./plugins
  wasmforge build --toolchains tools.yml --output-dir dist

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, debugEnabled())
	annotations := logging.NewAnnotationWriter(os.Stdout)

	manifest, err := loadToolchainManifest(*manifestPath)
	if err != nil {
		annotations.Error(err.Error())
		os.Exit(1)
	}

	verifier, err := newSignatureVerifier(ctx, manifest)
	if err != nil {
		annotations.Error(err.Error())
		os.Exit(1)
	}

	runner := gateways.NewExecRunner(logger)
	downloader := gateways.NewDownloader(logger)

	provisioner, err := gateways.NewProvisioner(manifest, downloader, verifier, logger)
	if err != nil {
		annotations.Error(err.Error())
		os.Exit(1)
	}

	orch := orchestrators.NewBuildOrchestrator(
		provisioner,
		runner,
		gateways.NewCrateDiscoverer(runner, logger),
		gateways.NewCargoBuilder(runner, logger, *workspace, *triple),
		gateways.NewWasmOptimizer(runner, logger),
		gateways.NewWasmStripper(runner, logger),
		gateways.NewChecksumRecorder(logger),
		logger,
		orchestrators.BuildOrchestratorConfig{
			WorkspaceRoot: *workspace,
			OutputDir:     *outputDir,
		},
	)

	annotations.Group("build wasm plugins")
	report, err := orch.Run(ctx)
	annotations.EndGroup()

	if err != nil {
		annotations.Error(err.Error())
		os.Exit(1)
	}

	fmt.Printf("\nBuilt %d/%d plugin artifacts in %v\n",
		len(report.Artifacts), report.Targets, report.Duration.Round(time.Millisecond))
	for _, a := range report.Artifacts {
		fmt.Printf("  %s  %s\n", a.Checksum, filepath.Base(a.Path))
	}
}

// loadToolchainManifest loads the manifest file, falling back to the
// built-in toolchain pins when no path is given.
func loadToolchainManifest(path string) (*entities.ToolchainManifest, error) {
	if path == "" {
		return yaml.DefaultManifest()
	}
	return yaml.LoadManifest(path)
}

// newSignatureVerifier builds a verifier with the keys every signed
// toolchain names. Returns nil when nothing in the manifest is signed.
func newSignatureVerifier(ctx context.Context, manifest *entities.ToolchainManifest) (gateways.SignatureVerifier, error) {
	v := gpg.NewVerifier()
	imported := false

	for _, tc := range manifest.Toolchains {
		if !tc.Signed() {
			continue
		}
		switch {
		case tc.KeyFile != "":
			if err := v.ImportKeyFromFile(tc.KeyFile); err != nil {
				return nil, fmt.Errorf("toolchain %s: %w", tc.Name, err)
			}
		case tc.KeysURL != "":
			if err := v.ImportKeysFromURL(ctx, tc.KeysURL); err != nil {
				return nil, fmt.Errorf("toolchain %s: %w", tc.Name, err)
			}
		default:
			return nil, fmt.Errorf("toolchain %s has a signature_url but no keys_url or key_file", tc.Name)
		}
		imported = true
	}

	if !imported {
		return nil, nil
	}
	return v, nil
}
