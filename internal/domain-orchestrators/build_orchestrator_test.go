package orchestrators

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
)

// Mock implementations for testing
type mockProvisioner struct {
	binDirs []string
	err     error
	calls   int
}

func (m *mockProvisioner) InstallToolchains(_ context.Context) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.binDirs, nil
}

type mockSearchPath struct {
	dirs []string
}

func (m *mockSearchPath) Prepend(dirs ...string) {
	m.dirs = append(dirs, m.dirs...)
}

type mockDiscoverer struct {
	targets []entities.BuildTarget
	err     error
	calls   int
}

func (m *mockDiscoverer) DiscoverTargets(_ context.Context, _ string) ([]entities.BuildTarget, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.targets, nil
}

type mockCompiler struct {
	err   error
	calls []string
}

func (m *mockCompiler) Compile(_ context.Context, target entities.BuildTarget) (string, error) {
	m.calls = append(m.calls, target.PackageName)
	if m.err != nil {
		return "", m.err
	}
	return filepath.Join("target", "release", target.ArtifactName+".wasm"), nil
}

type mockOptimizer struct {
	err    error
	failOn string // artifact name that should fail
	calls  []string
}

func (m *mockOptimizer) Optimize(_ context.Context, _, dst, _ string) error {
	m.calls = append(m.calls, dst)
	if m.err != nil && (m.failOn == "" || strings.Contains(dst, m.failOn)) {
		return m.err
	}
	return nil
}

type mockStripper struct {
	calls []string
}

func (m *mockStripper) Strip(_ context.Context, path string) error {
	m.calls = append(m.calls, path)
	return nil
}

type mockChecksums struct {
	calls []string
}

func (m *mockChecksums) Record(path string) (string, error) {
	m.calls = append(m.calls, path)
	return "deadbeef", nil
}

type fixture struct {
	provisioner *mockProvisioner
	searchPath  *mockSearchPath
	discoverer  *mockDiscoverer
	compiler    *mockCompiler
	optimizer   *mockOptimizer
	stripper    *mockStripper
	checksums   *mockChecksums
	orch        *BuildOrchestrator
	workspace   string
}

func newFixture(t *testing.T, targets []entities.BuildTarget) *fixture {
	t.Helper()

	f := &fixture{
		provisioner: &mockProvisioner{binDirs: []string{"/cache/binaryen/bin", "/cache/wabt/bin"}},
		searchPath:  &mockSearchPath{},
		discoverer:  &mockDiscoverer{targets: targets},
		compiler:    &mockCompiler{},
		optimizer:   &mockOptimizer{},
		stripper:    &mockStripper{},
		checksums:   &mockChecksums{},
		workspace:   t.TempDir(),
	}

	f.orch = NewBuildOrchestrator(
		f.provisioner,
		f.searchPath,
		f.discoverer,
		f.compiler,
		f.optimizer,
		f.stripper,
		f.checksums,
		&interfaces.NoOpLogger{},
		BuildOrchestratorConfig{WorkspaceRoot: f.workspace},
	)
	return f
}

func TestBuildOrchestrator_Run_TwoTargets(t *testing.T) {
	targets := []entities.BuildTarget{
		{PackageName: "plugin-alpha", ArtifactName: "plugin_alpha", OptLevel: "s"},
		{PackageName: "plugin-beta", ArtifactName: "plugin_beta", OptLevel: "3"},
	}
	f := newFixture(t, targets)

	report, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.Targets != 2 || len(report.Artifacts) != 2 {
		t.Errorf("Run() targets=%d artifacts=%d, want 2 and 2", report.Targets, len(report.Artifacts))
	}

	// Both pipelines ran with distinct output files
	var finals []string
	for _, a := range report.Artifacts {
		finals = append(finals, filepath.Base(a.Path))
	}
	sort.Strings(finals)
	want := []string{"plugin_alpha.wasm", "plugin_beta.wasm"}
	if diff := cmp.Diff(want, finals); diff != "" {
		t.Errorf("artifact files mismatch (-want +got):\n%s", diff)
	}

	// Toolchain bin dirs reached the search path before builds
	if len(f.searchPath.dirs) != 2 {
		t.Errorf("search path dirs = %v, want 2 entries", f.searchPath.dirs)
	}

	// Each target was stripped and hashed exactly once
	if len(f.stripper.calls) != 2 || len(f.checksums.calls) != 2 {
		t.Errorf("strip calls=%d checksum calls=%d, want 2 and 2",
			len(f.stripper.calls), len(f.checksums.calls))
	}
}

func TestBuildOrchestrator_Run_NoTargets(t *testing.T) {
	f := newFixture(t, nil)

	report, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if report.Targets != 0 || len(report.Artifacts) != 0 {
		t.Errorf("Run() targets=%d artifacts=%d, want 0 and 0", report.Targets, len(report.Artifacts))
	}

	// No build pipeline stages ran
	if len(f.compiler.calls) != 0 || len(f.optimizer.calls) != 0 {
		t.Error("pipeline stages ran despite empty target set")
	}

	// Output directory was still created
	if _, err := os.Stat(filepath.Join(f.workspace, "builds")); err != nil {
		t.Errorf("output directory missing: %v", err)
	}
}

func TestBuildOrchestrator_Run_OutputDirExists(t *testing.T) {
	f := newFixture(t, []entities.BuildTarget{
		{PackageName: "plugin-alpha", ArtifactName: "plugin_alpha", OptLevel: "s"},
	})

	if err := os.Mkdir(filepath.Join(f.workspace, "builds"), 0750); err != nil {
		t.Fatalf("failed to pre-create output dir: %v", err)
	}

	_, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when the output directory exists")
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Errorf("Run() error = %v, want mention of existing directory", err)
	}

	// The run failed before anything was invoked
	if f.provisioner.calls != 0 || f.discoverer.calls != 0 || len(f.compiler.calls) != 0 {
		t.Error("collaborators were invoked despite pre-existing output directory")
	}
}

func TestBuildOrchestrator_Run_ProvisionFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.provisioner.err = errors.New("download failed: HTTP 404")

	_, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when provisioning fails")
	}
	if f.discoverer.calls != 0 {
		t.Error("discovery ran despite provisioning failure")
	}
}

func TestBuildOrchestrator_Run_OptimizerFailure(t *testing.T) {
	targets := []entities.BuildTarget{
		{PackageName: "plugin-alpha", ArtifactName: "plugin_alpha", OptLevel: "s"},
		{PackageName: "plugin-beta", ArtifactName: "plugin_beta", OptLevel: "s"},
	}
	f := newFixture(t, targets)
	f.optimizer.err = errors.New("wasm-opt exited with code 1")
	f.optimizer.failOn = "plugin_beta"

	_, err := f.orch.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when one target's optimizer fails")
	}
	if !strings.Contains(err.Error(), "wasm-opt") {
		t.Errorf("Run() error = %v, want the optimizer failure surfaced", err)
	}

	// The failing pipeline never reached later stages for its own target
	for _, path := range f.checksums.calls {
		if strings.Contains(path, "plugin_beta") {
			t.Error("checksum recorded for target whose optimize step failed")
		}
	}
}
