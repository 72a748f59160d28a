package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		suffix string
		want   Version
		ok     bool
	}{
		{"1.2.3", Version{1, 2, 3}, true},
		{"0.3.48", Version{0, 3, 48}, true},
		{"1.2.3.4", Version{1, 2, 3, 4}, true},
		{"7", Version{7}, true},
		{"2.0.0-rc", nil, false},
		{"1..3", nil, false},
		{"1.-2.3", nil, false},
		{"", nil, false},
		{"abc", nil, false},
	}
	for _, tc := range cases {
		got, ok := Parse(tc.suffix)
		assert.Equal(t, tc.ok, ok, "suffix %q", tc.suffix)
		if tc.ok {
			assert.Equal(t, tc.want, got, "suffix %q", tc.suffix)
		}
	}
}

func TestCompareIsComponentWiseNotLexicographic(t *testing.T) {
	v1_2_3, ok := Parse("1.2.3")
	require.True(t, ok)
	v1_10_0, ok := Parse("1.10.0")
	require.True(t, ok)

	// "1.10.0" < "1.2.3" as strings, but 1.10.0 > 1.2.3 numerically.
	assert.Equal(t, 1, v1_10_0.Compare(v1_2_3))
	assert.Equal(t, -1, v1_2_3.Compare(v1_10_0))
	assert.Equal(t, 0, v1_2_3.Compare(Version{1, 2, 3}))
}

func TestCompareUnequalLengths(t *testing.T) {
	assert.Equal(t, -1, Version{1, 2}.Compare(Version{1, 2, 0}))
	assert.Equal(t, 1, Version{1, 2, 1}.Compare(Version{1, 2}))
}

func TestSelectLatest(t *testing.T) {
	refs := []string{
		"refs/tags/v1.2.3",
		"refs/tags/v1.10.0",
		"refs/tags/v2.0.0",
		"refs/tags/v2.0.0-rc", // non-numeric component: excluded
		"refs/tags/release-5", // outside the versioned namespace
		"refs/heads/master",
	}
	ref, ok := SelectLatest(refs)
	require.True(t, ok)
	assert.Equal(t, "refs/tags/v2.0.0", ref)
}

func TestSelectLatestNumericOrdering(t *testing.T) {
	ref, ok := SelectLatest([]string{"refs/tags/v1.2.3", "refs/tags/v1.10.0"})
	require.True(t, ok)
	assert.Equal(t, "refs/tags/v1.10.0", ref)
}

func TestSelectLatestNoSurvivors(t *testing.T) {
	_, ok := SelectLatest([]string{"refs/tags/v2.0.0-rc", "refs/heads/master"})
	assert.False(t, ok)

	_, ok = SelectLatest(nil)
	assert.False(t, ok)
}

func TestSelectLatestTieKeepsLastEncountered(t *testing.T) {
	// Equal versions resolve deterministically to the one encountered last.
	ref, ok := SelectLatest([]string{"refs/tags/v1.0", "refs/tags/v1.0"})
	require.True(t, ok)
	assert.Equal(t, "refs/tags/v1.0", ref)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "v1.2.3", ShortName("refs/tags/v1.2.3"))
}
