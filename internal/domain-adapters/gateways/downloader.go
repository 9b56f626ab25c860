package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"wasmforge/internal/domain/interfaces"
)

// Downloader fetches toolchain release archives and extracts them
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader. The client sets no timeout of
// its own; downloads are bounded by the request context and the CI job's
// lifetime.
func NewDownloader(logger interfaces.Logger) *Downloader {
	return &Downloader{
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Fetch downloads a URL into destDir and returns the downloaded file path.
// The file name is taken from the final URL path element.
func (d *Downloader) Fetch(ctx context.Context, url, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	outputPath := filepath.Join(destDir, filepath.Base(url))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "wasmforge/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: outputPath is derived from the download destination
	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	d.logger.Debug("downloaded archive",
		interfaces.F("file", filepath.Base(outputPath)),
		interfaces.F("bytes", written))

	return outputPath, nil
}

// Extract unpacks an archive into destDir and returns the extraction root.
// When the archive has a single top-level directory (the release-archive
// convention), that directory is returned instead of destDir.
func (d *Downloader) Extract(archivePath, destDir string) (string, error) {
	var err error
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		err = d.extractTarGz(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.xz"), strings.HasSuffix(archivePath, ".txz"):
		err = d.extractTarXz(archivePath, destDir)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}

	return resolveExtractionRoot(destDir)
}

func (d *Downloader) extractTarGz(archivePath, destDir string) error {
	//nolint:gosec // G304: archivePath is the file this run just downloaded
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	//nolint:errcheck // Defer close on gzip reader
	defer gzr.Close()

	return d.extractTar(tar.NewReader(gzr), destDir)
}

func (d *Downloader) extractTarXz(archivePath, destDir string) error {
	//nolint:gosec // G304: archivePath is the file this run just downloaded
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	xzr, err := xz.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	return d.extractTar(tar.NewReader(xzr), destDir)
}

func (d *Downloader) extractTar(tr *tar.Reader, destDir string) error {
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break // End of archive
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		//nolint:gosec // G305: Path traversal validated by the prefix check below
		target := filepath.Join(destDir, header.Name)

		// Ensure target is within destDir (security check). The separator
		// suffix keeps sibling directories sharing the prefix out, e.g.
		// "extracted-evil" next to "extracted".
		cleanDest := filepath.Clean(destDir)
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("invalid file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}

			//nolint:gosec // G115: Integer overflow from tar header mode is acceptable
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}

			// Copy with a 1GB cap to guard against decompression bombs
			if _, err := io.Copy(outFile, io.LimitReader(tr, 1<<30)); err != nil {
				_ = outFile.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("failed to close file: %w", err)
			}

		default:
			// Symlinks and special files in toolchain archives are skipped:
			// the binaries the run needs are regular files under bin/
			d.logger.Debug("skipping archive entry",
				interfaces.F("name", header.Name),
				interfaces.F("type", header.Typeflag))
		}
	}

	return nil
}

// resolveExtractionRoot returns the single top-level directory of an
// extracted archive, or the extraction directory itself otherwise.
func resolveExtractionRoot(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted directory: %w", err)
	}

	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(destDir, entries[0].Name()), nil
	}
	return destDir, nil
}
