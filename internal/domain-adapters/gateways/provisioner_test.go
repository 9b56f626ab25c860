package gateways

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"wasmforge/internal/domain/entities"
	"wasmforge/internal/domain/interfaces"
)

func TestBuildDownloadURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		version  string
		platform string
		want     string
	}{
		{
			name:     "binaryen release",
			template: "https://github.com/WebAssembly/binaryen/releases/download/version_{version}/binaryen-version_{version}-{platform}.tar.gz",
			version:  "116",
			platform: "x86_64-linux",
			want:     "https://github.com/WebAssembly/binaryen/releases/download/version_116/binaryen-version_116-x86_64-linux.tar.gz",
		},
		{
			name:     "wabt release",
			template: "https://github.com/WebAssembly/wabt/releases/download/{version}/wabt-{version}-{platform}.tar.gz",
			version:  "1.0.34",
			platform: "ubuntu",
			want:     "https://github.com/WebAssembly/wabt/releases/download/1.0.34/wabt-1.0.34-ubuntu.tar.gz",
		},
		{
			name:     "no placeholders",
			template: "https://example.com/fixed.tar.gz",
			version:  "9",
			platform: "linux",
			want:     "https://example.com/fixed.tar.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDownloadURL(tt.template, tt.version, tt.platform)
			if got != tt.want {
				t.Errorf("BuildDownloadURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHostPlatformKey(t *testing.T) {
	key := HostPlatformKey()

	if !strings.HasPrefix(key, runtime.GOOS+"-") {
		t.Errorf("HostPlatformKey() = %s, want %s- prefix", key, runtime.GOOS)
	}
	if runtime.GOARCH == "amd64" && !strings.HasSuffix(key, "x86_64") {
		t.Errorf("HostPlatformKey() = %s, want x86_64 suffix on amd64", key)
	}
}

func TestProvisioner_InstallToolchains(t *testing.T) {
	// Serve one stub archive per toolchain
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tool string
		switch {
		case strings.Contains(r.URL.Path, "alpha"):
			tool = "wasm-opt"
		case strings.Contains(r.URL.Path, "beta"):
			tool = "wasm-strip"
		default:
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(buildTarGz(t, []tarEntry{
			{name: "tool-1.0/", content: ""},
			{name: "tool-1.0/bin/", content: ""},
			{name: "tool-1.0/bin/" + tool, content: "#!/bin/sh\n", mode: 0755},
		}))
	}))
	defer server.Close()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	hostKey := HostPlatformKey()
	manifest := &entities.ToolchainManifest{
		Toolchains: []entities.Toolchain{
			{
				Name:        "alpha",
				Version:     "1.0",
				DownloadURL: server.URL + "/alpha-{version}-{platform}.tar.gz",
				Platforms:   map[string]string{hostKey: "testplat"},
				BinDir:      "bin",
			},
			{
				Name:        "beta",
				Version:     "1.0",
				DownloadURL: server.URL + "/beta-{version}-{platform}.tar.gz",
				Platforms:   map[string]string{hostKey: "testplat"},
				BinDir:      "bin",
			},
		},
	}

	p, err := NewProvisioner(manifest, NewDownloader(&interfaces.NoOpLogger{}), nil, &interfaces.NoOpLogger{})
	if err != nil {
		t.Fatalf("NewProvisioner() failed: %v", err)
	}

	binDirs, err := p.InstallToolchains(context.Background())
	if err != nil {
		t.Fatalf("InstallToolchains() failed: %v", err)
	}

	if len(binDirs) != 2 {
		t.Fatalf("InstallToolchains() returned %d dirs, want 2", len(binDirs))
	}

	// Manifest order is preserved: alpha first, beta second
	if _, err := os.Stat(filepath.Join(binDirs[0], "wasm-opt")); err != nil {
		t.Errorf("alpha bin dir missing wasm-opt: %v", err)
	}
	if _, err := os.Stat(filepath.Join(binDirs[1], "wasm-strip")); err != nil {
		t.Errorf("beta bin dir missing wasm-strip: %v", err)
	}
}

func TestProvisioner_InstallToolchains_UnsupportedPlatform(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	manifest := &entities.ToolchainManifest{
		Toolchains: []entities.Toolchain{
			{
				Name:        "alpha",
				Version:     "1.0",
				DownloadURL: "https://example.invalid/{version}-{platform}.tar.gz",
				Platforms:   map[string]string{"plan9-mips": "mips"},
				BinDir:      "bin",
			},
		},
	}

	p, err := NewProvisioner(manifest, NewDownloader(&interfaces.NoOpLogger{}), nil, &interfaces.NoOpLogger{})
	if err != nil {
		t.Fatalf("NewProvisioner() failed: %v", err)
	}

	_, err = p.InstallToolchains(context.Background())
	if err == nil {
		t.Fatal("InstallToolchains() should fail for an unsupported platform")
	}
	if !strings.Contains(err.Error(), "no alpha release") {
		t.Errorf("InstallToolchains() error = %v, want unsupported-platform message", err)
	}
}

func TestProvisioner_InstallToolchains_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	manifest := &entities.ToolchainManifest{
		Toolchains: []entities.Toolchain{
			{
				Name:        "alpha",
				Version:     "1.0",
				DownloadURL: server.URL + "/alpha.tar.gz",
				Platforms:   map[string]string{HostPlatformKey(): "testplat"},
				BinDir:      "bin",
			},
		},
	}

	p, err := NewProvisioner(manifest, NewDownloader(&interfaces.NoOpLogger{}), nil, &interfaces.NoOpLogger{})
	if err != nil {
		t.Fatalf("NewProvisioner() failed: %v", err)
	}

	if _, err := p.InstallToolchains(context.Background()); err == nil {
		t.Error("InstallToolchains() should fail when the download fails")
	}
}

func TestProvisioner_InstallToolchains_SignedWithoutVerifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buildTarGz(t, []tarEntry{{name: "tool-1.0/", content: ""}}))
	}))
	defer server.Close()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	manifest := &entities.ToolchainManifest{
		Toolchains: []entities.Toolchain{
			{
				Name:         "alpha",
				Version:      "1.0",
				DownloadURL:  server.URL + "/alpha.tar.gz",
				SignatureURL: server.URL + "/alpha.tar.gz.sig",
				Platforms:    map[string]string{HostPlatformKey(): "testplat"},
				BinDir:       "bin",
			},
		},
	}

	p, err := NewProvisioner(manifest, NewDownloader(&interfaces.NoOpLogger{}), nil, &interfaces.NoOpLogger{})
	if err != nil {
		t.Fatalf("NewProvisioner() failed: %v", err)
	}

	_, err = p.InstallToolchains(context.Background())
	if err == nil {
		t.Fatal("InstallToolchains() should fail when a signed toolchain has no verifier")
	}
	if !strings.Contains(err.Error(), "no verifier") {
		t.Errorf("InstallToolchains() error = %v, want missing-verifier message", err)
	}
}
