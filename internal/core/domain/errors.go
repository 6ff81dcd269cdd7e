// Package domain contains the core models of backfill: fingerprints, modes, workspaces,
// lock files and configuration.
package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidConfig is returned when the resolved configuration fails validation.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrInvalidMode is returned when a mode string does not name a known mode.
	ErrInvalidMode = zerr.New("invalid mode")

	// ErrUnknownProvider is returned when the cache provider selector names no known backend.
	ErrUnknownProvider = zerr.New("unknown cache provider")

	// ErrMissingProviderOption is returned when a backend is selected without a required option.
	ErrMissingProviderOption = zerr.New("missing cache provider option")

	// ErrCustomStorageNotSet is returned when the custom provider is selected but no backend was injected.
	ErrCustomStorageNotSet = zerr.New("custom cache storage not provided")

	// ErrInvalidLogLevel is returned when a log level string is not recognized.
	ErrInvalidLogLevel = zerr.New("invalid log level")

	// ErrLockFileNotFound is returned when no supported lock file exists above a package root.
	ErrLockFileNotFound = zerr.New("lock file not found")

	// ErrLockFileMalformed is returned when a lock file cannot be decoded.
	ErrLockFileMalformed = zerr.New("lock file is malformed")

	// ErrGitRootNotFound is returned when a package is not inside a git repository and no
	// watch globs were configured to enumerate its files.
	ErrGitRootNotFound = zerr.New("git root not found")

	// ErrManifestNotFound is returned when a package root has no package.json.
	ErrManifestNotFound = zerr.New("package manifest not found")

	// ErrManifestMalformed is returned when a package.json cannot be decoded.
	ErrManifestMalformed = zerr.New("package manifest is malformed")

	// ErrInvalidFingerprint is returned when a fingerprint is empty or not lowercase hex.
	ErrInvalidFingerprint = zerr.New("invalid fingerprint")

	// ErrNoOutputFound is returned by Put when the output globs match no files.
	ErrNoOutputFound = zerr.New("no output found")

	// ErrSizeLimitExceeded is returned when an artifact exceeds a backend's size ceiling.
	ErrSizeLimitExceeded = zerr.New("artifact exceeds size limit")

	// ErrTransferStalled is returned when a transfer makes no progress within the stall timeout.
	ErrTransferStalled = zerr.New("transfer stalled")

	// ErrUnsafeArchivePath is returned when an archive entry would be extracted outside its root.
	ErrUnsafeArchivePath = zerr.New("archive entry escapes destination")

	// ErrDigestMismatch is returned when a downloaded archive does not match its recorded digest.
	ErrDigestMismatch = zerr.New("archive digest mismatch")

	// ErrRegistryRequest is returned when the npm registry answers with an unexpected status.
	ErrRegistryRequest = zerr.New("registry request failed")

	// ErrNoBuildCommand is returned when an invocation carries no command to run.
	ErrNoBuildCommand = zerr.New("no build command")

	// ErrBuildExecutionFailed is returned when the build command fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")
)
