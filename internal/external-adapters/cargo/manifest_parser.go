// Package cargo provides Cargo.toml parsing for workspace crate manifests.
package cargo

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// CrateTypeCdylib is the artifact kind that marks a crate as a buildable
// dynamic-library plugin.
const CrateTypeCdylib = "cdylib"

// tomlManifest represents the raw TOML structure of a crate manifest.
// Only the fields target discovery needs are mapped.
type tomlManifest struct {
	Package tomlPackage `toml:"package"`
	Lib     tomlLib     `toml:"lib"`
	Profile tomlProfile `toml:"profile"`
}

type tomlPackage struct {
	Name string `toml:"name"`
}

type tomlLib struct {
	Name      string   `toml:"name"`
	CrateType []string `toml:"crate-type"`
}

type tomlProfile struct {
	Release tomlReleaseProfile `toml:"release"`
}

type tomlReleaseProfile struct {
	// Cargo accepts both integer (0-3) and string ("s", "z") forms
	OptLevel interface{} `toml:"opt-level"`
}

// CrateManifest is the parsed, domain-facing view of a Cargo.toml
type CrateManifest struct {
	PackageName     string
	LibName         string
	CrateTypes      []string
	ReleaseOptLevel string // empty when the release profile sets no level
}

// ParseManifest parses crate manifest content
func ParseManifest(data []byte) (*CrateManifest, error) {
	var raw tomlManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse crate manifest: %w", err)
	}

	if raw.Package.Name == "" {
		return nil, fmt.Errorf("crate manifest missing package name")
	}

	optLevel, err := normalizeOptLevel(raw.Profile.Release.OptLevel)
	if err != nil {
		return nil, err
	}

	return &CrateManifest{
		PackageName:     raw.Package.Name,
		LibName:         raw.Lib.Name,
		CrateTypes:      raw.Lib.CrateType,
		ReleaseOptLevel: optLevel,
	}, nil
}

// ParseManifestFile parses a crate manifest from disk
func ParseManifestFile(path string) (*CrateManifest, error) {
	//nolint:gosec // G304: manifest paths come from the package manager's metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read crate manifest: %w", err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return manifest, nil
}

// HasCrateType reports whether the crate declares the given artifact kind
func (m *CrateManifest) HasCrateType(kind string) bool {
	for _, t := range m.CrateTypes {
		if t == kind {
			return true
		}
	}
	return false
}

// ArtifactName returns the output file stem cargo will use for this crate:
// the explicit [lib] name when set, otherwise the package name, with
// hyphens normalized to underscores.
func (m *CrateManifest) ArtifactName() string {
	name := m.LibName
	if name == "" {
		name = m.PackageName
	}
	return strings.ReplaceAll(name, "-", "_")
}

func normalizeOptLevel(v interface{}) (string, error) {
	switch level := v.(type) {
	case nil:
		return "", nil
	case string:
		return level, nil
	case int64:
		return strconv.FormatInt(level, 10), nil
	default:
		return "", fmt.Errorf("unsupported opt-level value %v (%T)", v, v)
	}
}
