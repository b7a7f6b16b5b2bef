// Package version parses and compares the pager protocol version a server
// announces during discovery.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the protocol version implemented by this client.
const Current = "1.0"

// ProtocolVersion represents a parsed "major.minor" protocol version.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (ProtocolVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return ProtocolVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse is Parse for constants.
func MustParse(s string) ProtocolVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// Supported reports whether a server announcing announced can be used.
// Servers that do not announce a version predate the key and are accepted;
// an unparsable version is rejected.
func Supported(announced string) bool {
	if strings.TrimSpace(announced) == "" {
		return true
	}
	v, err := Parse(announced)
	if err != nil {
		return false
	}
	return MustParse(Current).Compatible(v)
}
