package service

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const (
	maxRetrievalURLs     = 3
	maxPageBodyBytes     = 512 * 1024
	maxPageContextRunes  = 8000
	retrievalContextHead = "Use the following page content as context when answering:"
)

var urlPattern = regexp.MustCompile(`https?://[^\s)>\]]+`)

// buildSearchContext fetches the URLs mentioned in the user's text and
// assembles a grounding block for the system prompt. URLs that fail to fetch
// are skipped; the successfully fetched ones are returned as citations.
func buildSearchContext(text string) (string, []string) {
	urls := extractURLs(text)
	if len(urls) == 0 {
		return "", nil
	}

	var b strings.Builder
	var fetched []string
	for _, url := range urls {
		content, err := fetchPageMarkdown(url)
		if err != nil {
			logger.Warnf("[retrieval] fetch %s failed, %s", url, err)
			continue
		}
		if b.Len() == 0 {
			b.WriteString(retrievalContextHead)
		}
		b.WriteString(fmt.Sprintf("\n\n--- %s ---\n%s", url, content))
		fetched = append(fetched, url)
	}
	return b.String(), fetched
}

func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	seen := make(map[string]bool)
	var urls []string
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;")
		if seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
		if len(urls) == maxRetrievalURLs {
			break
		}
	}
	return urls
}

func fetchPageMarkdown(url string) (string, error) {
	res, err := http.Get(url)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, maxPageBodyBytes))
	if err != nil {
		return "", err
	}

	content, err := htmltomarkdown.ConvertString(string(data))
	if err != nil {
		return "", err
	}
	runes := []rune(content)
	if len(runes) > maxPageContextRunes {
		content = string(runes[:maxPageContextRunes])
	}
	return content, nil
}
