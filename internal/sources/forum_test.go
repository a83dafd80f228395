package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestForumExtract_TopicTitleAndTimeElement(t *testing.T) {
	t.Parallel()

	url := "https://qcad.org/rsforum/viewtopic.php?t=9170"
	getter := newFakeGetter()
	getter.page(url, `<html><head><title>QCAD Forum</title></head><body>
<h2 class="topic-title">Dimension text vanishes  on zoom</h2>
<time datetime="2021-03-10T15:45:00+00:00">Mar 10, 2021</time>
</body></html>`)

	rec, err := NewForumExtractor(getter, "").Extract(context.Background(), url, "Jane Doe")
	require.NoError(t, err)

	require.Equal(t, "QCADForum #9170", rec.ID)
	require.Equal(t, "Dimension text vanishes on zoom", rec.Desc)
	require.Equal(t, "2021-03-10", rec.Date)
}

func TestForumExtract_PostedPhrase(t *testing.T) {
	t.Parallel()

	url := "https://qcad.org/rsforum/viewtopic.php?t=123"
	getter := newFakeGetter()
	getter.page(url, `<html><head><title>Broken hatch • QCAD Forum</title></head><body>
<span>Posted:</span> <span>Wed Mar 10, 2021 3:45 pm</span>
</body></html>`)

	rec, err := NewForumExtractor(getter, "").Extract(context.Background(), url, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "2021-03-10", rec.Date)
	require.Equal(t, "Broken hatch • QCAD Forum", rec.Desc)
}

func TestForumExtract_BreadcrumbDate(t *testing.T) {
	t.Parallel()

	url := "https://qcad.org/rsforum/viewtopic.php?t=456"
	getter := newFakeGetter()
	getter.page(url, `<html><head><title>Layer list</title></head><body>
<span>by someone</span> » <span>5 Mar 2021</span>
</body></html>`)

	rec, err := NewForumExtractor(getter, "").Extract(context.Background(), url, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "2021-03-05", rec.Date)
}

func TestForumExtract_BasenameWhenNoThreadParam(t *testing.T) {
	t.Parallel()

	url := "https://qcad.org/rsforum/topic-9999.html"
	getter := newFakeGetter()
	getter.page(url, `<html><head><title>Odd snap behavior</title></head><body></body></html>`)

	rec, err := NewForumExtractor(getter, "").Extract(context.Background(), url, "Jane Doe")
	require.NoError(t, err)
	require.Equal(t, "QCADForum #topic-9999.html", rec.ID)
	require.Empty(t, rec.Date)
}
