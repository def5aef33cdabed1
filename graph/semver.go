package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer is the strictly-ordered (major, minor, patch) version carried
// by a pinned resource (spec.md §3, §8 "Version monotonicity").
type SemVer struct {
	Major, Minor, Patch int
}

func ParseSemVer(s string) (SemVer, error) {
	parts := strings.SplitN(s, ".", 3)
	if len(parts) != 3 {
		return SemVer{}, fmt.Errorf("graph: malformed version %q, want major.minor.patch", s)
	}
	var v SemVer
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return SemVer{}, fmt.Errorf("graph: malformed major in %q: %w", s, err)
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return SemVer{}, fmt.Errorf("graph: malformed minor in %q: %w", s, err)
	}
	if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return SemVer{}, fmt.Errorf("graph: malformed patch in %q: %w", s, err)
	}
	return v, nil
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is lexicographically less than,
// equal to, or greater than other.
func (v SemVer) Compare(other SemVer) int {
	if v.Major != other.Major {
		return cmp(v.Major, other.Major)
	}
	if v.Minor != other.Minor {
		return cmp(v.Minor, other.Minor)
	}
	return cmp(v.Patch, other.Patch)
}

func (v SemVer) GreaterThan(other SemVer) bool { return v.Compare(other) > 0 }

func cmp(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
