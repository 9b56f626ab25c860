package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"wasmforge/internal/domain-adapters/gateways"
	"wasmforge/internal/external-adapters/logging"
)

func runTargets(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("targets", flag.ExitOnError)
	workspace := fs.String("workspace", defaultWorkspace(), "Workspace root (defaults to $GITHUB_WORKSPACE)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: wasmforge targets [options]

List the workspace crates that declare a cdylib artifact, with the
optimization level each will be built at.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, debugEnabled())
	runner := gateways.NewExecRunner(logger)
	discoverer := gateways.NewCrateDiscoverer(runner, logger)

	targets, err := discoverer.DiscoverTargets(ctx, *workspace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(targets) == 0 {
		fmt.Println("No plugin crates found in workspace")
		return
	}

	fmt.Printf("Found %d plugin crate(s):\n\n", len(targets))
	fmt.Printf("%-30s %-30s %s\n", "PACKAGE", "ARTIFACT", "OPT")
	for _, t := range targets {
		fmt.Printf("%-30s %-30s -O%s\n", t.PackageName, t.ArtifactName+".wasm", t.OptLevel)
	}
}
