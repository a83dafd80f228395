package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/humanize"
)

func TestGitLabExtract_WithSubgroup(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter()
	getter.page(
		"https://invent.kde.org/api/v4/projects/graphics%2Fdrawing%2Fkolourpaint/issues/88",
		`{"title":"Brush tool misses strokes","created_at":"2020-11-02T09:15:00.000Z"}`,
	)
	getter.page(
		"https://invent.kde.org/api/v4/projects/graphics%2Fdrawing%2Fkolourpaint",
		`{"name":"kolourpaint"}`,
	)

	ex := NewGitLabExtractor(getter, humanize.New(noReadme{}), zap.NewNop())
	rec, err := ex.Extract(
		context.Background(),
		"https://invent.kde.org/graphics/drawing/kolourpaint/-/issues/88",
		"Jane Doe",
	)
	require.NoError(t, err)

	require.Equal(t, "Kolourpaint #88", rec.ID)
	require.Equal(t, "2020-11-02", rec.Date)
	require.Equal(t, "Brush tool misses strokes", rec.Desc)
}

func TestGitLabExtract_NameLookupFailureFallsBackToPathSegment(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter()
	getter.page(
		"https://gitlab.com/api/v4/projects/acme%2Fwidget-tool/issues/3",
		`{"title":"Panic on save","created_at":"2019-01-20T00:00:00Z"}`,
	)
	// No project metadata page registered: the lookup 404s.

	ex := NewGitLabExtractor(getter, humanize.New(noReadme{}), zap.NewNop())
	rec, err := ex.Extract(context.Background(), "https://gitlab.com/acme/widget-tool/-/issues/3", "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "Widget-Tool #3", rec.ID)
}

func TestParseGitLabPath(t *testing.T) {
	t.Parallel()

	group, project, number, err := parseGitLabPath("u", "/grp/sub/proj/-/issues/42")
	require.NoError(t, err)
	require.Equal(t, "grp", group)
	require.Equal(t, "sub/proj", project)
	require.Equal(t, "42", number)
}

func TestParseGitLabPath_Malformed(t *testing.T) {
	t.Parallel()

	var malformed *bugs.MalformedURLError

	_, _, _, err := parseGitLabPath("u", "/grp/proj/-/wishlist/42")
	require.ErrorAs(t, err, &malformed)

	_, _, _, err = parseGitLabPath("u", "/proj/-/issues/42")
	require.ErrorAs(t, err, &malformed)

	_, _, _, err = parseGitLabPath("u", "/grp/proj/-/issues")
	require.ErrorAs(t, err, &malformed)
}
