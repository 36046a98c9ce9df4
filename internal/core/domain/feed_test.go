package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFeedURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.COM/feed/", "https://example.com/feed"},
		{"HTTP://example.com/rss.xml#latest", "http://example.com/rss.xml"},
		{" https://example.com/a?b=1 ", "https://example.com/a?b=1"},
		{"https://example.com/", "https://example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeFeedURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "example.com/feed", "ftp://example.com", "https://", "://x"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := NormalizeFeedURL(bad)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestFeedItem_Key(t *testing.T) {
	assert.Equal(t, "guid:abc", (&FeedItem{GUID: "abc", Link: "l", Title: "t"}).Key())
	assert.Equal(t, "link:https://x", (&FeedItem{Link: "https://x", Title: "t"}).Key())
	assert.Equal(t, "title:hello world", (&FeedItem{Title: "  Hello World "}).Key())
}

func TestFeedItem_SameContent(t *testing.T) {
	a := &FeedItem{Title: "t", Summary: "s", Content: "c", Read: true}
	b := &FeedItem{Title: "t", Summary: "s", Content: "c"}
	assert.True(t, a.SameContent(b), "read flag is not content")

	b.Summary = "changed"
	assert.False(t, a.SameContent(b))
}

func TestFeed_DisplayTitle(t *testing.T) {
	assert.Equal(t, "https://x", (&Feed{URL: "https://x"}).DisplayTitle())
	assert.Equal(t, "Fed", (&Feed{URL: "https://x", Title: "Fed"}).DisplayTitle())
}

func TestFeedDiff_Changed(t *testing.T) {
	assert.False(t, (&FeedDiff{Unchanged: 3}).Changed())
	assert.True(t, (&FeedDiff{Added: []FeedItem{{}}}).Changed())
	assert.True(t, (&FeedDiff{Updated: []FeedItem{{}}}).Changed())
}
