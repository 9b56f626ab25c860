package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wasmforge/internal/domain-adapters/gateways"
	"wasmforge/internal/external-adapters/logging"
)

func runVerify(_ context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: wasmforge verify <dir>

Recompute the SHA-256 digest of every .wasm artifact in <dir> and compare
it against the recorded .sha256 file. Exits non-zero on any mismatch.
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: directory is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	dir := fs.Arg(0)

	logger := logging.New(os.Stderr, debugEnabled())
	recorder := gateways.NewChecksumRecorder(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	verified := 0
	failed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wasm") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := recorder.Verify(path); err != nil {
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", entry.Name(), err)
			failed++
			continue
		}
		fmt.Printf("OK   %s\n", entry.Name())
		verified++
	}

	if verified == 0 && failed == 0 {
		fmt.Println("No .wasm artifacts found")
		return
	}

	fmt.Printf("\n%d verified, %d failed\n", verified, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
