package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	urls := extractURLs("see https://a.example/page and http://b.example, twice https://a.example/page")
	assert.Equal(t, []string{"https://a.example/page", "http://b.example"}, urls)

	assert.Empty(t, extractURLs("no links here"))
}

func TestExtractURLsCapped(t *testing.T) {
	text := "https://a.example https://b.example https://c.example https://d.example"
	urls := extractURLs(text)
	assert.Len(t, urls, maxRetrievalURLs)
}

func TestBuildSearchContextNoURLs(t *testing.T) {
	ctx, sources := buildSearchContext("plain question")
	assert.Empty(t, ctx)
	assert.Empty(t, sources)
}

func TestExtractURLsTrimsTrailingPunctuation(t *testing.T) {
	urls := extractURLs("read https://a.example/doc.")
	assert.Equal(t, []string{"https://a.example/doc"}, urls)
	assert.False(t, strings.HasSuffix(urls[0], "."))
}
