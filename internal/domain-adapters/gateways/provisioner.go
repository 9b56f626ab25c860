package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
)

// SignatureVerifier checks a downloaded archive against a detached signature
type SignatureVerifier interface {
	VerifyDetached(ctx context.Context, filePath, sigURL string) error
}

// Provisioner downloads and installs the external WebAssembly toolchains
// into a per-user cache directory. Installs run fresh every time; there
// is no existing-install check.
type Provisioner struct {
	manifest   *entities.ToolchainManifest
	downloader *Downloader
	verifier   SignatureVerifier
	logger     interfaces.Logger
	cacheDir   string
	platform   string
}

// NewProvisioner creates a provisioner for the host platform. verifier may
// be nil when no toolchain in the manifest is signed.
func NewProvisioner(
	manifest *entities.ToolchainManifest,
	downloader *Downloader,
	verifier SignatureVerifier,
	logger interfaces.Logger,
) (*Provisioner, error) {
	userCache, err := os.UserCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user cache directory: %w", err)
	}

	return &Provisioner{
		manifest:   manifest,
		downloader: downloader,
		verifier:   verifier,
		logger:     logger,
		cacheDir:   filepath.Join(userCache, "wasmforge"),
		platform:   HostPlatformKey(),
	}, nil
}

// InstallToolchains downloads, verifies and extracts every toolchain in the
// manifest concurrently and returns their executable directories, in
// manifest order. Any single failure fails the whole provisioning step.
func (p *Provisioner) InstallToolchains(ctx context.Context) ([]string, error) {
	binDirs := make([]string, len(p.manifest.Toolchains))

	g := new(errgroup.Group)
	for i, tc := range p.manifest.Toolchains {
		g.Go(func() error {
			binDir, err := p.install(ctx, &tc)
			if err != nil {
				return fmt.Errorf("failed to install %s: %w", tc.Name, err)
			}
			binDirs[i] = binDir
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return binDirs, nil
}

func (p *Provisioner) install(ctx context.Context, tc *entities.Toolchain) (string, error) {
	platformName, ok := tc.Platforms[p.platform]
	if !ok {
		return "", fmt.Errorf("no %s release for platform %s", tc.Name, p.platform)
	}

	url := BuildDownloadURL(tc.DownloadURL, tc.Version, platformName)
	installDir := filepath.Join(p.cacheDir, fmt.Sprintf("%s-%s", tc.Name, tc.Version))

	p.logger.Info("installing toolchain",
		interfaces.F("toolchain", tc.Name),
		interfaces.F("version", tc.Version))
	p.logger.Debug("downloading", interfaces.F("url", url))

	archivePath, err := p.downloader.Fetch(ctx, url, installDir)
	if err != nil {
		return "", err
	}

	if tc.Signed() {
		if p.verifier == nil {
			return "", fmt.Errorf("toolchain %s requires signature verification but no verifier is configured", tc.Name)
		}
		sigURL := BuildDownloadURL(tc.SignatureURL, tc.Version, platformName)
		if err := p.verifier.VerifyDetached(ctx, archivePath, sigURL); err != nil {
			return "", err
		}
		p.logger.Debug("signature verified", interfaces.F("toolchain", tc.Name))
	}

	extractRoot, err := p.downloader.Extract(archivePath, filepath.Join(installDir, "extracted"))
	if err != nil {
		return "", err
	}

	binDir := filepath.Join(extractRoot, tc.BinDir)
	if info, err := os.Stat(binDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("extracted archive has no %s directory at %s", tc.BinDir, binDir)
	}

	p.logger.Info("toolchain installed",
		interfaces.F("toolchain", tc.Name),
		interfaces.F("bin", binDir))

	return binDir, nil
}

// BuildDownloadURL performs template substitution (exported for testing)
func BuildDownloadURL(template, version, platform string) string {
	url := strings.ReplaceAll(template, "{version}", version)
	return strings.ReplaceAll(url, "{platform}", platform)
}

// HostPlatformKey returns the manifest platform key for the current host,
// e.g. "linux-x86_64" or "darwin-arm64".
func HostPlatformKey() string {
	arch := runtime.GOARCH

	// Map Go's GOARCH to the naming used by toolchain releases
	archMap := map[string]string{
		"amd64": "x86_64",
		"arm64": "arm64",
		"386":   "i386",
	}
	if mapped := archMap[arch]; mapped != "" {
		arch = mapped
	}

	return fmt.Sprintf("%s-%s", runtime.GOOS, arch)
}
