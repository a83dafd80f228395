package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGitHubReadmes_APIFirst(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter()
	getter.page("https://api.github.com/repos/acme/widget/readme", "# Widget\n\nWidget does things.\n")

	provider := NewGitHubReadmes(getter, "", "", "")
	text, err := provider.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	require.Contains(t, text, "# Widget")
}

func TestGitHubReadmes_FallsBackToRawFilenames(t *testing.T) {
	t.Parallel()

	getter := newFakeGetter()
	// API route answers with an error envelope.
	getter.page("https://api.github.com/repos/acme/widget/readme", `{"message":"Not Found"}`)
	getter.page("https://raw.githubusercontent.com/acme/widget/HEAD/README.rst", "Widget\n======\n")

	provider := NewGitHubReadmes(getter, "", "", "")
	text, err := provider.Readme(context.Background(), "acme", "widget")
	require.NoError(t, err)
	require.Contains(t, text, "Widget")
	require.True(t, getter.requested("https://raw.githubusercontent.com/acme/widget/HEAD/README.md"))
}

func TestGitHubReadmes_AllRoutesFail(t *testing.T) {
	t.Parallel()

	provider := NewGitHubReadmes(newFakeGetter(), "", "", "")
	_, err := provider.Readme(context.Background(), "acme", "widget")
	require.Error(t, err)
}
