// Package yaml provides YAML-based toolchain manifest parsing.
package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"wasmforge/internal/domain/entities"
)

// yamlManifest represents the raw YAML structure
type yamlManifest struct {
	Toolchains []yamlToolchain `yaml:"toolchains"`
}

type yamlToolchain struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	DownloadURL  string            `yaml:"download_url"`
	Platforms    map[string]string `yaml:"platforms"`
	BinDir       string            `yaml:"bin_dir"`
	SignatureURL string            `yaml:"signature_url"`
	KeysURL      string            `yaml:"keys_url"`
	KeyFile      string            `yaml:"key_file"`
}

// defaultManifestYAML pins the toolchain releases a run provisions when no
// manifest file is supplied. Binaryen and WABT name their release platforms
// differently, hence the two separate mappings.
const defaultManifestYAML = `
toolchains:
  - name: binaryen
    version: "116"
    download_url: https://github.com/WebAssembly/binaryen/releases/download/version_{version}/binaryen-version_{version}-{platform}.tar.gz
    bin_dir: bin
    platforms:
      linux-x86_64: x86_64-linux
      linux-arm64: aarch64-linux
      darwin-x86_64: x86_64-macos
      darwin-arm64: arm64-macos
      windows-x86_64: x86_64-windows
  - name: wabt
    version: "1.0.34"
    download_url: https://github.com/WebAssembly/wabt/releases/download/{version}/wabt-{version}-{platform}.tar.gz
    bin_dir: bin
    platforms:
      linux-x86_64: ubuntu
      darwin-x86_64: macos-12
      darwin-arm64: macos-12
      windows-x86_64: windows
`

// ParseManifest parses toolchain manifest content
func ParseManifest(data []byte) (*entities.ToolchainManifest, error) {
	var raw yamlManifest
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse toolchain manifest: %w", err)
	}

	if len(raw.Toolchains) == 0 {
		return nil, fmt.Errorf("toolchain manifest declares no toolchains")
	}

	manifest := &entities.ToolchainManifest{}
	for _, tc := range raw.Toolchains {
		if tc.Name == "" {
			return nil, fmt.Errorf("toolchain entry missing name")
		}
		if tc.Version == "" {
			return nil, fmt.Errorf("toolchain %s missing version", tc.Name)
		}
		if tc.DownloadURL == "" {
			return nil, fmt.Errorf("toolchain %s missing download_url", tc.Name)
		}
		if len(tc.Platforms) == 0 {
			return nil, fmt.Errorf("toolchain %s declares no platforms", tc.Name)
		}

		binDir := tc.BinDir
		if binDir == "" {
			binDir = "bin"
		}

		manifest.Toolchains = append(manifest.Toolchains, entities.Toolchain{
			Name:         tc.Name,
			Version:      tc.Version,
			DownloadURL:  tc.DownloadURL,
			Platforms:    tc.Platforms,
			BinDir:       binDir,
			SignatureURL: tc.SignatureURL,
			KeysURL:      tc.KeysURL,
			KeyFile:      tc.KeyFile,
		})
	}

	return manifest, nil
}

// LoadManifest parses a toolchain manifest from disk
func LoadManifest(path string) (*entities.ToolchainManifest, error) {
	//nolint:gosec // G304: manifest path is user-provided configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read toolchain manifest: %w", err)
	}
	return ParseManifest(data)
}

// DefaultManifest returns the built-in toolchain manifest
func DefaultManifest() (*entities.ToolchainManifest, error) {
	return ParseManifest([]byte(defaultManifestYAML))
}
