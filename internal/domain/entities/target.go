// Package entities defines core domain models and data structures.
package entities

// DefaultOptLevel is used when a crate's release profile does not set an
// optimization level of its own.
const DefaultOptLevel = "s"

// BuildTarget represents one buildable dynamic-library crate in the workspace
type BuildTarget struct {
	PackageName  string // cargo package name, passed to `cargo build -p`
	ArtifactName string // output file stem (cargo normalizes `-` to `_`)
	OptLevel     string // wasm-opt level: 0-4, "s" or "z"
}

// Artifact represents a produced plugin binary in the output directory
type Artifact struct {
	Target   BuildTarget
	Path     string
	Checksum string // lowercase hex SHA-256 of the final bytes
}
