package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "build":
		runBuild(ctx, os.Args[2:])
	case "targets":
		runTargets(ctx, os.Args[2:])
	case "tools":
		runTools(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`wasmforge - CI build step for WebAssembly plugin artifacts

Usage:
  wasmforge <command> [options]

Commands:
  build    Compile, optimize, strip and checksum all plugin crates
  targets  List the workspace crates that produce plugin artifacts
  tools    Install the WebAssembly toolchains and print their bin dirs
  verify   Re-verify recorded checksums in an output directory

Use "wasmforge <command> --help" for more information about a command.`)
}

// defaultWorkspace resolves the workspace root from the CI environment
func defaultWorkspace() string {
	if ws := os.Getenv("GITHUB_WORKSPACE"); ws != "" {
		return ws
	}
	return "."
}

// debugEnabled reports whether the CI runner requested debug logging
func debugEnabled() bool {
	return os.Getenv("RUNNER_DEBUG") == "1"
}
