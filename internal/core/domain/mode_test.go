package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/backfill/internal/core/domain"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.Mode
		wantErr  bool
	}{
		{"READ_WRITE", domain.ModeReadWrite, false},
		{"read_only", domain.ModeReadOnly, false},
		{"write-only", domain.ModeWriteOnly, false},
		{" PASS ", domain.ModePass, false},
		{"bogus", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidMode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestMode_Capabilities(t *testing.T) {
	tests := []struct {
		mode    domain.Mode
		hashes  bool
		fetches bool
		puts    bool
	}{
		{domain.ModeReadWrite, true, true, true},
		{domain.ModeReadOnly, true, true, false},
		{domain.ModeWriteOnly, true, false, true},
		{domain.ModePass, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.hashes, tt.mode.Hashes())
			assert.Equal(t, tt.fetches, tt.mode.Fetches())
			assert.Equal(t, tt.puts, tt.mode.Puts())
		})
	}
}

func TestFingerprint_Validate(t *testing.T) {
	require.NoError(t, domain.Fingerprint("abc123").Validate())
	require.NoError(t, domain.Fingerprint("0123456789abcdef0123456789abcdef01234567").Validate())

	err := domain.Fingerprint("").Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidFingerprint)

	err = domain.Fingerprint("../etc").Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidFingerprint)

	err = domain.Fingerprint("ABC").Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidFingerprint)
}

func TestFingerprint_Short(t *testing.T) {
	assert.Equal(t, "abc", domain.Fingerprint("abc").Short())
	assert.Equal(t, "01234567", domain.Fingerprint("0123456789abcdef").Short())
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    domain.LogLevel
		expected string
	}{
		{domain.LogLevelTrace, "TRACE"},
		{domain.LogLevelDebug, "DEBUG"},
		{domain.LogLevelInfo, "INFO"},
		{domain.LogLevelWarn, "WARN"},
		{domain.LogLevelError, "ERROR"},
		{domain.LogLevelMute, "MUTE"},
		{domain.LogLevel(999), "INFO"}, // Default case
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.String())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.LogLevel
	}{
		{"silly", domain.LogLevelTrace},
		{"verbose", domain.LogLevelDebug},
		{"debug", domain.LogLevelDebug},
		{"info", domain.LogLevelInfo},
		{"", domain.LogLevelInfo},
		{"WARN", domain.LogLevelWarn},
		{"error", domain.LogLevelError},
		{"mute", domain.LogLevelMute},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := domain.ParseLogLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := domain.ParseLogLevel("loud")
	assert.ErrorIs(t, err, domain.ErrInvalidLogLevel)
}
