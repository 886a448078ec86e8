// Package migration upgrades stored data from older schema versions. Steps
// are registered against the version they produce, run in ascending order,
// and persist the version marker after each one so an interrupted run
// resumes where it stopped.
package migration

import (
	"fmt"
	"strconv"
	"strings"
)

// LegacyVersion is assumed for stores that predate the version marker.
const LegacyVersion = "0.0.0"

// CurrentVersion is the schema version this build writes.
const CurrentVersion = "1.6.0"

// Version is a dotted-triple schema version. Missing segments read as zero,
// so "1.2" and "1.2.0" compare equal.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses a dotted version string. The empty string parses as
// the legacy version.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = LegacyVersion
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q: too many segments", s)
	}

	var segments [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: segment %q is not a non-negative number", s, part)
		}
		segments[i] = n
	}
	return Version{Major: segments[0], Minor: segments[1], Patch: segments[2]}, nil
}

// MustParseVersion parses a version known at compile time.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0, or 1 as v is older than, equal to, or newer than o.
func (v Version) Compare(o Version) int {
	pairs := [][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}}
	for _, p := range pairs {
		if p[0] < p[1] {
			return -1
		}
		if p[0] > p[1] {
			return 1
		}
	}
	return 0
}

// String formats the version as a dotted triple.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
