package gateways

import (
	"context"
	"fmt"
	"path/filepath"

	"wasmforge/internal/domain/interfaces"
)

// WasmOptimizer runs the external size/speed optimizer on a binary
type WasmOptimizer struct {
	runner interfaces.CommandRunner
	logger interfaces.Logger
}

// NewWasmOptimizer creates a new optimizer gateway
func NewWasmOptimizer(runner interfaces.CommandRunner, logger interfaces.Logger) *WasmOptimizer {
	return &WasmOptimizer{runner: runner, logger: logger}
}

// Optimize runs wasm-opt at the requested level, writing dst
func (o *WasmOptimizer) Optimize(ctx context.Context, src, dst, level string) error {
	o.logger.Info("optimizing",
		interfaces.F("artifact", filepath.Base(dst)),
		interfaces.F("level", level))

	_, err := o.runner.Run(ctx, interfaces.Command{
		Name: "wasm-opt",
		Args: []string{"-O" + level, src, "-o", dst},
	})
	if err != nil {
		return fmt.Errorf("optimize failed for %s: %w", filepath.Base(dst), err)
	}
	return nil
}

// WasmStripper removes debug and symbol information from a binary in place
type WasmStripper struct {
	runner interfaces.CommandRunner
	logger interfaces.Logger
}

// NewWasmStripper creates a new stripper gateway
func NewWasmStripper(runner interfaces.CommandRunner, logger interfaces.Logger) *WasmStripper {
	return &WasmStripper{runner: runner, logger: logger}
}

// Strip runs wasm-strip on the file in place
func (s *WasmStripper) Strip(ctx context.Context, path string) error {
	s.logger.Info("stripping", interfaces.F("artifact", filepath.Base(path)))

	_, err := s.runner.Run(ctx, interfaces.Command{
		Name: "wasm-strip",
		Args: []string{path},
	})
	if err != nil {
		return fmt.Errorf("strip failed for %s: %w", filepath.Base(path), err)
	}
	return nil
}
