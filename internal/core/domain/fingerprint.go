package domain

import "go.trai.ch/zerr"

// Fingerprint is the content-addressable cache key of one build invocation of one package.
// It is opaque: consumers only compare it for equality and use it as a storage key.
type Fingerprint string

// FingerprintLength is the length of fingerprints produced by the hasher.
const FingerprintLength = 40

// String returns the fingerprint as a string.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns an abbreviated form for log lines and telemetry labels.
func (f Fingerprint) Short() string {
	if len(f) <= 8 {
		return string(f)
	}
	return string(f[:8])
}

// Validate checks that the fingerprint is usable as a path segment and object key:
// non-empty lowercase hex.
func (f Fingerprint) Validate() error {
	if f == "" {
		return ErrInvalidFingerprint
	}
	for _, c := range f {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return zerr.With(zerr.Wrap(ErrInvalidFingerprint, "fingerprint is not lowercase hex"), "fingerprint", string(f))
		}
	}
	return nil
}
