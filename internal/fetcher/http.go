package fetcher

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"jobmatch/internal/errors"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// HTTPFetcher downloads a page with a plain GET and extracts its visible text
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// NewHTTPFetcher creates the plain HTTP strategy
func NewHTTPFetcher(userAgent string, timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

func (h *HTTPFetcher) Name() string { return "http" }

// Retrieve performs the GET. Any non-2xx status is an error.
func (h *HTTPFetcher) Retrieve(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", transportError(err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.NewNetworkError(errors.ErrCodeUpstreamStatus, "job page returned an error status",
			&StatusError{StatusCode: resp.StatusCode}).WithContext("url", url)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, h.maxBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	return ExtractText(body)
}

// transportError classifies a failed round trip; timeouts get their own code
func transportError(err error, url string) *errors.AppError {
	code := errors.ErrCodeNetworkRequest
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		code = errors.ErrCodeNetworkTimeout
	}
	return errors.NewNetworkError(code, "job page request failed", err).WithContext("url", url)
}

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Fieldset: true, atom.Figcaption: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Title: true, atom.Tr: true, atom.Ul: true,
}

// ExtractText parses HTML and returns its visible text with script and style content removed.
// Block elements start new lines; the result is not normalized.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.DataAtom] {
				return
			}
			if blockElements[n.DataAtom] {
				b.WriteByte('\n')
				defer b.WriteByte('\n')
			}
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String(), nil
}
