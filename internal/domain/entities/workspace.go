package entities

// WorkspaceMetadata is the parsed form of the package manager's workspace
// description. Read-only, discarded after target discovery.
type WorkspaceMetadata struct {
	Packages []PackageDescriptor
	Members  map[string]bool // package IDs that belong to the workspace itself
}

// PackageDescriptor identifies one package known to the workspace
type PackageDescriptor struct {
	ID           string
	Name         string
	ManifestPath string
}

// IsMember reports whether the given package ID is a workspace member
// rather than an external dependency.
func (m *WorkspaceMetadata) IsMember(id string) bool {
	return m.Members[id]
}
