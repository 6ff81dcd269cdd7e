package domain

// WorkspaceManager identifies the package manager that owns a workspace.
type WorkspaceManager string

const (
	// ManagerNone marks a standalone package with no workspace manager.
	ManagerNone WorkspaceManager = ""
	// ManagerYarn marks a yarn workspace.
	ManagerYarn WorkspaceManager = "yarn"
	// ManagerPnpm marks a pnpm workspace.
	ManagerPnpm WorkspaceManager = "pnpm"
	// ManagerRush marks a rush monorepo.
	ManagerRush WorkspaceManager = "rush"
)

// PackageEntry is one package of a workspace.
type PackageEntry struct {
	// Name is the package name from its package.json.
	Name InternedString

	// Path is the absolute package root.
	Path InternedString
}

// WorkspaceInfo lists the packages of a workspace in discovery order.
// It is immutable once constructed.
type WorkspaceInfo struct {
	Root     string
	Manager  WorkspaceManager
	Packages []PackageEntry

	index map[InternedString]int
}

// NewWorkspaceInfo builds a WorkspaceInfo, dropping later duplicates of a package name.
func NewWorkspaceInfo(root string, manager WorkspaceManager, entries []PackageEntry) *WorkspaceInfo {
	ws := &WorkspaceInfo{
		Root:     root,
		Manager:  manager,
		Packages: make([]PackageEntry, 0, len(entries)),
		index:    make(map[InternedString]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := ws.index[e.Name]; dup {
			continue
		}
		ws.index[e.Name] = len(ws.Packages)
		ws.Packages = append(ws.Packages, e)
	}
	return ws
}

// Lookup returns the workspace package with the given name.
func (w *WorkspaceInfo) Lookup(name string) (PackageEntry, bool) {
	if w == nil {
		return PackageEntry{}, false
	}
	key := NewInternedString(name)
	if w.index != nil {
		i, ok := w.index[key]
		if !ok {
			return PackageEntry{}, false
		}
		return w.Packages[i], true
	}
	for _, p := range w.Packages {
		if p.Name == key {
			return p, true
		}
	}
	return PackageEntry{}, false
}

// Contains reports whether name is a workspace package.
func (w *WorkspaceInfo) Contains(name string) bool {
	_, ok := w.Lookup(name)
	return ok
}
