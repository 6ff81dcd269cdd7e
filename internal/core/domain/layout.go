package domain

import (
	"path/filepath"
	"time"
)

const (
	// DefaultInternalCacheFolder is the per-package folder for backfill state, relative to the package root.
	DefaultInternalCacheFolder = "node_modules/.cache/backfill"

	// ContentHashFileName is the file holding a package's content hash inside its internal cache folder.
	ContentHashFileName = "content-hash"

	// LogFileName is the name of the rotated log file inside the log folder.
	LogFileName = "backfill.log"

	// ConfigFileBaseName is the config file name without extension.
	ConfigFileBaseName = "backfill.config"

	// EnvPrefix is the prefix of environment variable overrides.
	EnvPrefix = "BACKFILL"

	// ManifestFileName is the package manifest.
	ManifestFileName = "package.json"

	// YarnLockFileName is the yarn lock file.
	YarnLockFileName = "yarn.lock"

	// PnpmLockFileName is the pnpm lock file.
	PnpmLockFileName = "pnpm-lock.yaml"

	// PnpmWorkspaceFileName is the pnpm workspace manifest.
	PnpmWorkspaceFileName = "pnpm-workspace.yaml"

	// RushManifestFileName is the rush monorepo manifest.
	RushManifestFileName = "rush.json"

	// NpmScratchDirName is the folder under the internal cache folder used by the npm backend.
	NpmScratchDirName = "npm"

	// DefaultConcurrency bounds concurrent disk operations during hashing.
	DefaultConcurrency = 32

	// DefaultStallTimeout is the S3 download stall timeout.
	DefaultStallTimeout = 60 * time.Second

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// RushCommonConfigDir is where rush keeps its lock files, relative to the rush root.
var RushCommonConfigDir = filepath.Join("common", "config", "rush")

// DefaultOutputGlobs returns the output globs used when none are configured.
func DefaultOutputGlobs() []string {
	return []string{"lib/**"}
}

// ResolveFolder joins a configured folder onto the package root unless it is already absolute.
func ResolveFolder(packageRoot, folder string) string {
	if filepath.IsAbs(folder) {
		return folder
	}
	return filepath.Join(packageRoot, folder)
}

// ContentHashPath returns where a package persists its content hash.
func ContentHashPath(packageRoot, internalCacheFolder string) string {
	return filepath.Join(ResolveFolder(packageRoot, internalCacheFolder), ContentHashFileName)
}
