package domain

// LockStatus reports whether a lock file parsed cleanly.
type LockStatus string

const (
	// LockStatusSuccess marks a lock file without conflict markers.
	LockStatusSuccess LockStatus = "success"
	// LockStatusMergeConflict marks a lock file that still carries merge conflict markers.
	LockStatusMergeConflict LockStatus = "merge-conflict"
)

// LockKey identifies a lock entry by package name and the declared version range.
type LockKey struct {
	Name  string
	Range string
}

// String renders the key as name@range.
func (k LockKey) String() string {
	return k.Name + "@" + k.Range
}

// LockEntry is the resolution of one LockKey.
type LockEntry struct {
	// Version is the resolved version.
	Version string

	// Dependencies maps dependency names to their declared ranges.
	Dependencies map[string]string
}

// ParsedLock is the normalized content of a single lock file.
// It is immutable once constructed.
type ParsedLock struct {
	Path    string
	Status  LockStatus
	Entries map[LockKey]LockEntry

	byName map[string][]LockKey
}

// NewParsedLock builds a ParsedLock and indexes its entries by package name.
func NewParsedLock(path string, status LockStatus, entries map[LockKey]LockEntry) *ParsedLock {
	if entries == nil {
		entries = make(map[LockKey]LockEntry)
	}
	byName := make(map[string][]LockKey)
	for k := range entries {
		byName[k.Name] = append(byName[k.Name], k)
	}
	return &ParsedLock{
		Path:    path,
		Status:  status,
		Entries: entries,
		byName:  byName,
	}
}

// EmptyLock returns a successful lock with no entries.
func EmptyLock() *ParsedLock {
	return NewParsedLock("", LockStatusSuccess, nil)
}

// Lookup returns the entry recorded for exactly name@rng.
func (p *ParsedLock) Lookup(name, rng string) (LockEntry, bool) {
	if p == nil {
		return LockEntry{}, false
	}
	e, ok := p.Entries[LockKey{Name: name, Range: rng}]
	return e, ok
}

// Candidates returns every entry recorded for name, in no particular order.
func (p *ParsedLock) Candidates(name string) []LockEntry {
	if p == nil {
		return nil
	}
	keys := p.byName[name]
	out := make([]LockEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, p.Entries[k])
	}
	return out
}
