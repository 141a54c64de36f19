package parser

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frontPage = `<html>
<head><title>Front</title><script>var s = "<a href='/evil'>script text is not a link</a>";</script></head>
<body>
<header><a href="/login">Log in to your account now</a></header>
<nav><a href="/section/world">World news section link</a></nav>
<main>
<ul class="stories">
  <li><a href="/posts/1">Rust 2.0 announced with new borrow checker</a> <span>120 points</span></li>
  <li><a href="https://other.example.com/story?id=2#comments">Go generics deep dive part two</a></li>
  <li><a href="#top">Back to the top of the page</a></li>
  <li><a href="javascript:void(0)">Click here to expand everything</a></li>
  <li><a href="/front#again">Reload this very same front page</a></li>
  <li><a href="/more">More</a></li>
</ul>
</main>
<footer><a href="/about">About this website and the team</a></footer>
</body></html>`

func TestExtractCandidates(t *testing.T) {
	t.Parallel()

	items, err := ExtractCandidates([]byte(frontPage), "https://news.example.com/front", ExtractOptions{SourceID: "news"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Rust 2.0 announced with new borrow checker", items[0].Title)
	assert.Equal(t, "https://news.example.com/posts/1", items[0].URL)
	assert.Equal(t, "news", items[0].SourceID)
	assert.Contains(t, items[0].RawExcerpt, "120 points")
	assert.Nil(t, items[0].PublishedAt)

	assert.Equal(t, "https://other.example.com/story?id=2", items[1].URL)
}

func TestExtractCandidatesSelectorAndLimit(t *testing.T) {
	t.Parallel()

	items, err := ExtractCandidates([]byte(frontPage), "https://news.example.com/front", ExtractOptions{
		Selector: "ul.stories",
		MaxItems: 1,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "https://news.example.com/posts/1", items[0].URL)

	_, err = ExtractCandidates([]byte(frontPage), "https://news.example.com/front", ExtractOptions{Selector: "table.missing"})
	assert.ErrorContains(t, err, "matched nothing")
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://news.example.com/list/")
	require.NoError(t, err)

	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"item?id=7", "https://news.example.com/list/item?id=7", true},
		{"//cdn.example.com/a", "https://cdn.example.com/a", true},
		{"mailto:someone@example.com", "", false},
		{"#comments", "", false},
		{"   ", "", false},
		{"/list", "", false},
	}
	for _, tc := range cases {
		got, ok := resolveLink(base, tc.href)
		assert.Equal(t, tc.ok, ok, tc.href)
		assert.Equal(t, tc.want, got, tc.href)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abc", 2))
	assert.Equal(t, "日本...", truncate("日本語", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
