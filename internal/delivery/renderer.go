package delivery

import (
	"strings"

	"feedrelay/internal/domain"
)

// PlainRenderer is the default message body: title and link, one per
// line. Richer rendering (markup, embeds) belongs to the transport
// side and plugs in through the Renderer interface.
type PlainRenderer struct{}

func (PlainRenderer) Render(article domain.Article, _ domain.Medium) (string, error) {
	var lines []string
	if title := article.Field(domain.FieldTitle); title != "" {
		lines = append(lines, title)
	}
	if link := article.Field(domain.FieldLink); link != "" {
		lines = append(lines, link)
	}
	if len(lines) == 0 {
		lines = append(lines, article.ID())
	}
	return strings.Join(lines, "\n"), nil
}
