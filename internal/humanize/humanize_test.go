package humanize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticReadme struct {
	text string
	err  error
}

func (s *staticReadme) Readme(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func TestHumanize_StructuralFallbacks(t *testing.T) {
	t.Parallel()

	h := New(&staticReadme{err: errors.New("no readme")})
	ctx := context.Background()

	cases := map[string]string{
		"hdf5":     "HDF5",
		"go2hx":    "Go2Hx",
		"librecad": "Librecad",
		"swc":      "Swc",
		"SWC":      "SWC",
		"libre-cad": "Libre-Cad",
		"my_tool":  "My-Tool",
	}
	for name, want := range cases {
		require.Equal(t, want, h.Humanize(ctx, "owner", name), "name=%q", name)
	}
}

func TestHumanize_MinesReadmeCasing(t *testing.T) {
	t.Parallel()

	readme := `# LibreCAD

LibreCAD is a free Open Source CAD application. librecad builds on Qt.

LibreCAD LibreCAD
`
	h := New(&staticReadme{text: readme})
	require.Equal(t, "LibreCAD", h.Humanize(context.Background(), "librecad", "librecad"))
}

func TestHumanize_HeadingWeightBeatsBodyFrequency(t *testing.T) {
	t.Parallel()

	// Mixed-case appears once in a heading; lowercase appears twice in the
	// body. Casing category wins before frequency ever matters.
	readme := "# CPython\n\ncpython is great. cpython really is.\n"
	h := New(&staticReadme{text: readme})
	require.Equal(t, "CPython", h.Humanize(context.Background(), "python", "cpython"))
}

func TestHumanize_ShortTokenPrefersTitleOverAllCaps(t *testing.T) {
	t.Parallel()

	readme := "ZIG ZIG ZIG issues are tracked here.\nZig is a language.\n"
	h := New(&staticReadme{text: readme})
	require.Equal(t, "Zig", h.Humanize(context.Background(), "ziglang", "zig"))
}

func TestHumanize_IgnoresCodeRegions(t *testing.T) {
	t.Parallel()

	readme := "```\nHDF5TOOL HDF5TOOL\n```\n    hdf5tool --version\nHdf5tool converts files.\n"
	h := New(&staticReadme{text: readme})
	require.Equal(t, "Hdf5tool", h.Humanize(context.Background(), "owner", "hdf5tool"))
}

func TestHumanize_CompoundName(t *testing.T) {
	t.Parallel()

	readme := "# GoFast\n\nGoFast wraps the fast-lane API.\n"
	h := New(&staticReadme{text: readme})
	// First token mined, second falls back structurally.
	require.Equal(t, "GoFast-Lane", h.Humanize(context.Background(), "owner", "gofast_lane"))
}

func TestHumanize_TiedVariantsResolveDeterministically(t *testing.T) {
	t.Parallel()

	// Two mixed-case spellings with identical counts: the winner must not
	// depend on map iteration order, so repeated runs agree.
	readme := "WiDgEt ships today.\nWidGet ships tomorrow.\n"
	want := ""
	for i := 0; i < 20; i++ {
		h := New(&staticReadme{text: readme})
		got := h.Humanize(context.Background(), "owner", "widget")
		if i == 0 {
			want = got
		}
		require.Equal(t, want, got, "run %d", i)
	}
	require.Equal(t, "WiDgEt", want)
}

func TestHumanize_NilFetcher(t *testing.T) {
	t.Parallel()

	h := New(nil)
	require.Equal(t, "Librecad", h.Humanize(context.Background(), "owner", "librecad"))
}

func TestHumanize_ReadmeFetchedOncePerRepo(t *testing.T) {
	t.Parallel()

	fetcher := &countingReadme{text: "# Tool\n"}
	h := New(fetcher)
	ctx := context.Background()
	h.Humanize(ctx, "Owner", "tool")
	h.Humanize(ctx, "owner", "Tool")
	require.Equal(t, 1, fetcher.calls)
}

type countingReadme struct {
	text  string
	calls int
}

func (c *countingReadme) Readme(context.Context, string, string) (string, error) {
	c.calls++
	return c.text, nil
}
