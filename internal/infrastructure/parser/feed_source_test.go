package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/domain"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <link>https://f.example.org</link>
    <item>
      <title>First and best</title>
      <link>https://f.example.org/1</link>
      <description>&lt;p&gt;Hello &lt;b&gt;world&lt;/b&gt; and friends&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <enclosure url="https://f.example.org/1.mp3" type="audio/mpeg" length="1024"/>
    </item>
    <item>
      <title>Second</title>
      <guid>https://f.example.org/2</guid>
      <description>plain text</description>
    </item>
    <item>
      <title>Third</title>
      <link>https://f.example.org/3</link>
    </item>
  </channel>
</rss>`

func TestFeedSourceFetch(t *testing.T) {
	t.Parallel()

	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		_, _ = w.Write([]byte(rssSample))
	}))
	defer server.Close()

	src := NewFeedSource(server.Client(), "feeds-test/1.0", 5, nil)
	items, err := src.Fetch(context.Background(), domain.Feed{Name: "example", URL: server.URL, Limit: 2})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "feeds-test/1.0", gotUA)

	first := items[0]
	assert.Equal(t, "First and best", first.Title)
	assert.Equal(t, "https://f.example.org/1", first.URL)
	assert.Equal(t, "example", first.SourceID)
	require.NotNil(t, first.PublishedAt)
	assert.Equal(t, 2006, first.PublishedAt.Year())
	assert.Contains(t, first.RawExcerpt, "Hello world and friends")
	assert.NotContains(t, first.RawExcerpt, "<b>")
	assert.Contains(t, first.RawExcerpt, "Media: https://f.example.org/1.mp3")

	assert.Equal(t, "https://f.example.org/2", items[1].URL)
}

func TestFeedSourceDefaultLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssSample))
	}))
	defer server.Close()

	src := NewFeedSource(server.Client(), "", 1, nil)
	items, err := src.Fetch(context.Background(), domain.Feed{URL: server.URL})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestFeedSourceRejectsGarbage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	_, err := NewFeedSource(server.Client(), "", 0, nil).Fetch(context.Background(), domain.Feed{URL: server.URL})
	assert.Error(t, err)
}
