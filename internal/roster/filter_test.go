package roster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseThreshold(t *testing.T) {
	cases := []struct {
		raw   string
		value float64
		ok    bool
	}{
		{"", 0, false},
		{"   ", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"20", 20, true},
		{" 160 ", 160, true},
		{"55.5", 55.5, true},
		{"160cm", 160, true},
		{"0", 0, true},
		{"NaN", 0, false},
	}

	for _, tc := range cases {
		value, ok := ParseThreshold(tc.raw)
		require.Equal(t, tc.ok, ok, "raw %q", tc.raw)
		require.Equal(t, tc.value, value, "raw %q", tc.raw)
	}
}

func TestParseFilterIgnoresMalformedThresholds(t *testing.T) {
	filter := ParseFilter(FilterInput{
		Search:    "ra",
		MinAge:    "dua puluh",
		MinHeight: "",
		MaxWeight: "60kg",
		Vocations: []string{" Kaigo ", ""},
	})

	require.Nil(t, filter.MinAge)
	require.Nil(t, filter.MinHeight)
	require.NotNil(t, filter.MaxWeight)
	require.Equal(t, 60.0, *filter.MaxWeight)
	require.Equal(t, []string{"Kaigo"}, filter.Vocations)

	view := DeriveView(fixtureStudents(), filter, SortSpec{})
	require.Equal(t, []string{"s3"}, ids(view))
}

func TestParseFilterSaturatesHugeAge(t *testing.T) {
	huge := ParseFilter(FilterInput{MinAge: "1e300"})
	require.NotNil(t, huge.MinAge)
	require.Equal(t, math.MaxInt, *huge.MinAge)
	require.Empty(t, DeriveView(fixtureStudents(), huge, SortSpec{}))

	negative := ParseFilter(FilterInput{MinAge: "-1e300"})
	require.Equal(t, math.MinInt, *negative.MinAge)
	require.Len(t, DeriveView(fixtureStudents(), negative, SortSpec{}), len(fixtureStudents()))
}

func TestFilterSpecIsEmpty(t *testing.T) {
	require.True(t, ParseFilter(FilterInput{MinAge: "x"}).IsEmpty())
	require.False(t, ParseFilter(FilterInput{MinAge: "1"}).IsEmpty())
}

func TestParseSortKeyAndDirection(t *testing.T) {
	key, ok := ParseSortKey(" Height ")
	require.True(t, ok)
	require.Equal(t, SortHeight, key)

	key, ok = ParseSortKey("")
	require.True(t, ok)
	require.Equal(t, SortNone, key)

	_, ok = ParseSortKey("email")
	require.False(t, ok)

	require.Equal(t, Descending, ParseDirection("desc"))
	require.Equal(t, Ascending, ParseDirection("sideways"))
}
