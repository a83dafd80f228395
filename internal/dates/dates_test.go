package dates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_ISOTimestamp(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2021-03-05", Normalize("2021-03-05T10:00:00Z"))
	require.Equal(t, "2021-03-05", Normalize("2021-03-05T10:00:00+00:00"))
	require.Equal(t, "2021-03-05", Normalize("2021-03-05T10:00:00.123456Z"))
}

func TestNormalize_RFC822(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2021-03-05", Normalize("Mon, 05 Mar 2021 10:00:00 +0000"))
	require.Equal(t, "2021-03-05", Normalize("Fri, 5 Mar 2021 10:00:00 GMT"))
}

func TestNormalize_HumanFormats(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Wed Mar 10, 2021 3:45 pm": "2021-03-10",
		"Wed Mar 10, 2021":         "2021-03-10",
		"Mar 10, 2021":             "2021-03-10",
		"10 Mar 2021":              "2021-03-10",
		"10 Mar 2021 15:04":        "2021-03-10",
		"2021-03-10":               "2021-03-10",
		"Wed Mar 10 15:04:05 2021": "2021-03-10",
	}
	for raw, want := range cases {
		require.Equal(t, want, Normalize(raw), "raw=%q", raw)
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	t.Parallel()

	require.Empty(t, Normalize("not a date"))
	require.Empty(t, Normalize(""))
	require.Empty(t, Normalize("  "))
}

func TestISODate_PassesRawThrough(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2021-03-05", ISODate("2021-03-05T10:00:00Z"))
	require.Equal(t, "sometime last week", ISODate("sometime last week"))
}

func TestFindAnyDateText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2021-03-10", FindAnyDateText("Posted: Wed Mar 10, 2021 3:45 pm by X"))
	require.Equal(t, "2021-03-05", FindAnyDateText("released 05 Mar 2021 after review"))
	require.Equal(t, "2019-12-31", FindAnyDateText("as of 2019-12-31 the build is green"))
	require.Equal(t, "2021-03-05", FindAnyDateText("Date: Fri, 5 Mar 2021 10:00:00 +0000"))
}

func TestFindAnyDateText_NoCandidate(t *testing.T) {
	t.Parallel()

	require.Empty(t, FindAnyDateText("nothing resembling a calendar here"))
	// Date-shaped but invalid values must not survive normalization.
	require.Empty(t, FindAnyDateText("9999-99-99 is not a day"))
}
