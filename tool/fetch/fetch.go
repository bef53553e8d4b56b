// Package fetch provides a tool that retrieves a URL for the model. HTML
// responses are converted to markdown; everything else passes through as
// text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/matthewmueller/anthropic"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

const description = `
- Fetches the URL content, converting HTML to markdown
- Use this tool when you need to retrieve and analyze the latest web content
`

// maxBody caps how much of a response is read. Anything past the cap is
// dropped rather than blowing up the conversation's token budget.
const maxBody = 2 << 20

type In struct {
	URL string `json:"url" is:"required" description:"The URL to fetch content from"`
}

type Out struct {
	Status  int    `json:"status"`
	Content string `json:"content"`
}

func New(hc *http.Client) anthropic.Tool {
	return anthropic.Func("fetch", description, func(ctx context.Context, input In) (*Out, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch: failed to create request: %w", err)
		}
		req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.8")

		res, err := hc.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch: request failed: %w", err)
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("fetch: reading response: %w", err)
		}

		content := string(body)
		if isHTML(res.Header.Get("Content-Type"), content) {
			markdown, err := htmltomarkdown.ConvertString(content)
			if err != nil {
				return nil, fmt.Errorf("fetch: failed to convert HTML to markdown: %w", err)
			}
			content = markdown
		}

		return &Out{
			Status:  res.StatusCode,
			Content: content,
		}, nil
	})
}

// isHTML sniffs the body when the server doesn't declare a content type.
func isHTML(contentType, body string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		default:
			return false
		}
	}
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
