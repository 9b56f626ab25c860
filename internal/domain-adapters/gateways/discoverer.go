package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
	"wasmforge/internal/external-adapters/cargo"
)

// CrateDiscoverer enumerates the workspace crates that produce a
// dynamic-library plugin artifact.
type CrateDiscoverer struct {
	runner interfaces.CommandRunner
	logger interfaces.Logger
}

// NewCrateDiscoverer creates a new discoverer
func NewCrateDiscoverer(runner interfaces.CommandRunner, logger interfaces.Logger) *CrateDiscoverer {
	return &CrateDiscoverer{runner: runner, logger: logger}
}

// cargoMetadata represents the machine-readable `cargo metadata` output
type cargoMetadata struct {
	Packages []struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		ManifestPath string `json:"manifest_path"`
	} `json:"packages"`
	WorkspaceMembers []string `json:"workspace_members"`
}

// DiscoverTargets inspects workspace metadata and each member crate's
// manifest, emitting one BuildTarget per crate whose artifact kinds include
// cdylib. Result order is unspecified; zero targets is a valid result.
func (d *CrateDiscoverer) DiscoverTargets(ctx context.Context, workspaceRoot string) ([]entities.BuildTarget, error) {
	meta, err := d.loadMetadata(ctx, workspaceRoot)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		targets []entities.BuildTarget
	)

	// Manifest reads are independent; read them in parallel
	g := new(errgroup.Group)
	for _, pkg := range meta.Packages {
		if !meta.IsMember(pkg.ID) {
			continue
		}

		g.Go(func() error {
			manifest, err := cargo.ParseManifestFile(pkg.ManifestPath)
			if err != nil {
				return err
			}

			if !manifest.HasCrateType(cargo.CrateTypeCdylib) {
				d.logger.Debug("skipping crate without cdylib target",
					interfaces.F("package", pkg.Name))
				return nil
			}

			optLevel := manifest.ReleaseOptLevel
			if optLevel == "" {
				optLevel = entities.DefaultOptLevel
			}

			target := entities.BuildTarget{
				PackageName:  pkg.Name,
				ArtifactName: manifest.ArtifactName(),
				OptLevel:     optLevel,
			}

			d.logger.Info("discovered plugin crate",
				interfaces.F("package", target.PackageName),
				interfaces.F("artifact", target.ArtifactName),
				interfaces.F("opt_level", target.OptLevel))

			mu.Lock()
			targets = append(targets, target)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return targets, nil
}

// loadMetadata runs the package manager's metadata command and parses the
// package list plus the workspace membership set.
func (d *CrateDiscoverer) loadMetadata(ctx context.Context, workspaceRoot string) (*entities.WorkspaceMetadata, error) {
	result, err := d.runner.Run(ctx, interfaces.Command{
		Name: "cargo",
		Args: []string{"metadata", "--format-version", "1", "--no-deps"},
		Dir:  workspaceRoot,
	})
	if err != nil {
		return nil, fmt.Errorf("cargo metadata failed: %w", err)
	}

	var raw cargoMetadata
	if err := json.Unmarshal([]byte(result.Stdout), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse cargo metadata output: %w", err)
	}

	meta := &entities.WorkspaceMetadata{
		Members: make(map[string]bool, len(raw.WorkspaceMembers)),
	}
	for _, id := range raw.WorkspaceMembers {
		meta.Members[id] = true
	}
	for _, pkg := range raw.Packages {
		meta.Packages = append(meta.Packages, entities.PackageDescriptor{
			ID:           pkg.ID,
			Name:         pkg.Name,
			ManifestPath: pkg.ManifestPath,
		})
	}

	return meta, nil
}
