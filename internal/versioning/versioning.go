// Package versioning selects release tags by numeric version order.
//
// A version tag lives under refs/tags/v and its suffix is a dotted sequence
// of non-negative integers of any length (v1.2.3, v0.3.48.1). Ordering is
// component-wise integer comparison, never string comparison: v1.10.0 sorts
// above v1.2.3. Tags with any non-numeric component (v2.0.0-rc) are silently
// excluded.
package versioning

import (
	"strconv"
	"strings"
)

// tagRefPrefix is the reference namespace version tags are matched against.
const tagRefPrefix = "refs/tags/v"

// Version is an ordered sequence of non-negative integer components.
type Version []int

// Compare returns -1, 0, or 1 ordering v against other component-wise.
// A missing component sorts below any present one, so 1.2 < 1.2.0 < 1.2.1.
func (v Version) Compare(other Version) int {
	for i := 0; i < len(v) || i < len(other); i++ {
		switch {
		case i >= len(v):
			return -1
		case i >= len(other):
			return 1
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}
	return 0
}

// Parse parses a dotted numeric suffix such as "1.2.3" into a Version.
// Returns false when any component fails to parse as a non-negative integer.
func Parse(suffix string) (Version, bool) {
	parts := strings.Split(suffix, ".")
	version := make(Version, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return nil, false
		}
		version = append(version, n)
	}
	return version, true
}

// SelectLatest filters refs to versioned tags and returns the full reference
// name of the highest version. Among equal versions the last one encountered
// wins. The second return is false when no tag survives filtering.
func SelectLatest(refs []string) (string, bool) {
	var (
		best     Version
		bestRef  string
		selected bool
	)
	for _, ref := range refs {
		if !strings.HasPrefix(ref, tagRefPrefix) {
			continue
		}
		version, ok := Parse(strings.TrimPrefix(ref, tagRefPrefix))
		if !ok {
			continue
		}
		if !selected || version.Compare(best) >= 0 {
			best = version
			bestRef = ref
			selected = true
		}
	}
	return bestRef, selected
}

// ShortName strips the refs/tags/ prefix from a tag reference name.
func ShortName(ref string) string {
	return strings.TrimPrefix(ref, "refs/tags/")
}
