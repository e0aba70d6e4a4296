package common

import (
	"errors"
	"fmt"
)

const (
	major = 0
	minor = 1
	patch = 0

	// Versions from which a store can be opened and migrated.
	// These should be used in a group (so prevMinor can be equal to minor if there are
	// no migration routines).
	prevMajor = 0
	prevMinor = 1
	prevPatch = 0

	Version = major*1_000_000 + minor*1_000 + patch

	PrevVersion = prevMajor*1_000_000 + prevMinor*1_000 + prevPatch
)

// ErrVersionMismatch is returned by CheckVersion in case of error.
var ErrVersionMismatch = errors.New("previous version mismatch")

// CheckVersion checks that a store written by version `from` can be opened by
// the current code.
func CheckVersion(from int) error {
	if from < PrevVersion {
		return fmt.Errorf("%w: expected >=%d, got %d", ErrVersionMismatch, PrevVersion, from)
	}
	if from > Version {
		return fmt.Errorf("%w: store version %d is newer than %d", ErrVersionMismatch, from, Version)
	}
	return nil
}

// VersionString formats a packed version as major.minor.patch.
func VersionString(v int) string {
	return fmt.Sprintf("%d.%d.%d", v/1_000_000, v/1_000%1_000, v%1_000)
}
