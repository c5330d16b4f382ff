package service

import (
	"bytes"
	"fmt"
	"html"

	"flowchat/model"

	"github.com/yuin/goldmark"
)

// ExportConversationHTML renders a conversation transcript as a standalone
// HTML document, message content treated as markdown.
func ExportConversationHTML(c *model.Conversation) (string, error) {
	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\">")
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(c.Title))
	b.WriteString("</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(c.Title))

	for _, m := range c.Messages {
		if m.IsLoading {
			continue
		}
		fmt.Fprintf(&b, "<section class=\"message %s\">\n<h2>%s</h2>\n", m.Role, m.Role)
		if err := goldmark.Convert([]byte(m.Content), &b); err != nil {
			return "", fmt.Errorf("render message %s: %w", m.ID, err)
		}
		if len(m.Sources) > 0 {
			b.WriteString("<ul class=\"sources\">\n")
			for _, src := range m.Sources {
				fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(src))
			}
			b.WriteString("</ul>\n")
		}
		b.WriteString("</section>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}
