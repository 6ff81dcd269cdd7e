package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Mode is the read/write policy governing whether fetch and put are performed.
type Mode string

const (
	// ModeReadWrite fetches, builds on miss, then puts.
	ModeReadWrite Mode = "READ_WRITE"
	// ModeReadOnly fetches and builds on miss, never puts.
	ModeReadOnly Mode = "READ_ONLY"
	// ModeWriteOnly always builds, then puts.
	ModeWriteOnly Mode = "WRITE_ONLY"
	// ModePass always builds and never touches the cache.
	ModePass Mode = "PASS"
)

// ParseMode converts a user supplied string into a Mode.
// Matching ignores case and accepts "-" in place of "_".
func ParseMode(s string) (Mode, error) {
	normalized := Mode(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	switch normalized {
	case ModeReadWrite, ModeReadOnly, ModeWriteOnly, ModePass:
		return normalized, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidMode, "unrecognized mode"), "mode", s)
	}
}

// Hashes reports whether the mode computes a fingerprint.
func (m Mode) Hashes() bool {
	return m != ModePass
}

// Fetches reports whether the mode reads from the cache.
func (m Mode) Fetches() bool {
	return m == ModeReadWrite || m == ModeReadOnly
}

// Puts reports whether the mode writes to the cache.
func (m Mode) Puts() bool {
	return m == ModeReadWrite || m == ModeWriteOnly
}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}
