package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wasmforge/internal/domain-adapters/gateways"
	"wasmforge/internal/external-adapters/logging"
)

func runTools(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("tools", flag.ExitOnError)
	manifestPath := fs.String("toolchains", "", "Toolchain manifest YAML (defaults to the built-in manifest)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: wasmforge tools [options]

Download and install the WebAssembly toolchains without building anything,
and print the executable directories they were installed to.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, debugEnabled())

	manifest, err := loadToolchainManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verifier, err := newSignatureVerifier(ctx, manifest)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	provisioner, err := gateways.NewProvisioner(manifest, gateways.NewDownloader(logger), verifier, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	binDirs, err := provisioner.InstallToolchains(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, dir := range binDirs {
		fmt.Println(dir)
	}
}
