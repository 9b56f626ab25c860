package entities

// Toolchain describes one external WebAssembly toolchain release to provision.
// URL templates use {version} and {platform} placeholders; Platforms maps a
// host platform key (e.g. "linux-x86_64") to the upstream project's own
// platform name, since each project uses a different naming convention.
type Toolchain struct {
	Name         string
	Version      string
	DownloadURL  string
	Platforms    map[string]string
	BinDir       string // executables directory inside the extracted tree
	SignatureURL string // optional detached signature, same placeholders
	KeysURL      string // optional armored public keys to verify against
	KeyFile      string // optional local armored key file
}

// Signed reports whether this toolchain's archive should be verified
// against a detached signature before extraction.
func (t *Toolchain) Signed() bool {
	return t.SignatureURL != ""
}

// ToolchainManifest is the full provisioning configuration for a run.
type ToolchainManifest struct {
	Toolchains []Toolchain
}
