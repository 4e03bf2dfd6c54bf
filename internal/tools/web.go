package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	// DefaultFetchTimeout bounds a single fetch_webpage request.
	DefaultFetchTimeout = 15 * time.Second
	// DefaultFetchMaxChars caps the text returned by fetch_webpage.
	DefaultFetchMaxChars = 12000
	// DefaultSerperURL is the Serper search endpoint.
	DefaultSerperURL = "https://google.serper.dev/search"
	// DefaultDuckDuckGoURL is the HTML search endpoint used without a Serper key.
	DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

	fetchReadLimit  = 2 << 20
	searchTimeout   = 30 * time.Second
	truncatedMarker = "\n\n[...truncated...]"
	userAgent       = "Mozilla/5.0 (compatible; Ghost/1.0)"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// Opener opens a URL in the user's browser.
type Opener func(ctx context.Context, rawURL string) error

// SystemOpener opens rawURL with the platform's default handler. The
// launcher outlives the call, so it is not bound to ctx.
func SystemOpener(ctx context.Context, rawURL string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	default:
		cmd = exec.Command("xdg-open", rawURL)
	}
	if _, err := launch(cmd); err != nil {
		return fmt.Errorf("error launching browser: %w", err)
	}
	return nil
}

// launch starts cmd and reaps it in the background. The returned channel
// receives the exit result.
func launch(cmd *exec.Cmd) (<-chan error, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}

func validateWebURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL '%s': %v", ErrInvalidParam, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: URL '%s' must use http or https", ErrInvalidParam, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: URL '%s' has no host", ErrInvalidParam, raw)
	}
	return u, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + truncatedMarker
}

// --- OpenURLTool ---

// OpenURLTool opens a URL in the system browser.
type OpenURLTool struct {
	Open Opener
}

func (t *OpenURLTool) Name() string {
	return "open_url_in_browser"
}

func (t *OpenURLTool) Description() string {
	return "Opens the specified URL in the system's default web browser. Parameters: 'url' (string, the full URL to open, e.g., https://www.google.com)."
}

func (t *OpenURLTool) Execute(ctx context.Context, params Params) (string, error) {
	raw, err := params.Require("url")
	if err != nil {
		return "", err
	}
	u, err := validateWebURL(raw)
	if err != nil {
		return "", err
	}
	if err := t.opener()(ctx, u.String()); err != nil {
		return "", fmt.Errorf("error opening URL '%s': %w", u, err)
	}
	return fmt.Sprintf("Successfully opened URL '%s' in the default browser.", u), nil
}

func (t *OpenURLTool) opener() Opener {
	if t.Open != nil {
		return t.Open
	}
	return SystemOpener
}

// --- SearchWebTool ---

// SearchWebTool opens a Google search for a query in the system browser.
type SearchWebTool struct {
	Open Opener
}

func (t *SearchWebTool) Name() string {
	return "search_web"
}

func (t *SearchWebTool) Description() string {
	return "Performs a web search using Google in the system's default web browser. Parameters: 'query' (string, the search term or question)."
}

func (t *SearchWebTool) Execute(ctx context.Context, params Params) (string, error) {
	query, err := params.Require("query")
	if err != nil {
		return "", err
	}
	target := "https://www.google.com/search?q=" + url.QueryEscape(query)

	open := t.Open
	if open == nil {
		open = SystemOpener
	}
	if err := open(ctx, target); err != nil {
		return "", fmt.Errorf("error opening search for '%s': %w", query, err)
	}
	return fmt.Sprintf("Opened a web search for '%s' in the default browser.", query), nil
}

// --- FetchWebpageTool ---

// FetchWebpageTool downloads a page and returns its readable text.
type FetchWebpageTool struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxChars int
}

func (t *FetchWebpageTool) Name() string {
	return "fetch_webpage"
}

func (t *FetchWebpageTool) Description() string {
	return "Fetches the text content of a web page URL and returns it. Use this to go in-depth on a specific search result. Parameters: 'url' (string, required - the full URL to fetch, e.g. https://example.com/page)."
}

func (t *FetchWebpageTool) Execute(ctx context.Context, params Params) (string, error) {
	raw, err := params.Require("url")
	if err != nil {
		return "", err
	}
	u, err := validateWebURL(raw)
	if err != nil {
		return "", err
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := httpClient(t.Client).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchReadLimit))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	text := string(body)
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		text, err = htmlToText(text)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("The page at '%s' has no readable text content.", u), nil
	}

	maxChars := t.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultFetchMaxChars
	}
	return fmt.Sprintf("Content of '%s':\n\n%s", u, truncateRunes(text, maxChars)), nil
}

func httpClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}

// htmlToText flattens an HTML document into readable plain text.
func htmlToText(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	extractText(root, &sb, 0)
	return cleanText(sb.String()), nil
}

func extractText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 200 {
		return
	}
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "head", "template":
			return
		case "p", "div", "section", "article", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "ul", "ol", "pre", "blockquote":
			sb.WriteString("\n\n")
		case "br":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, depth+1)
	}
}

func cleanText(s string) string {
	s = multiSpacePattern.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// --- WebSearchTool ---

// WebSearchTool runs a web search and returns the top results as text.
// With an API key it queries Serper; otherwise it scrapes DuckDuckGo's HTML endpoint.
type WebSearchTool struct {
	Client        *http.Client
	APIKey        string
	SerperURL     string
	DuckDuckGoURL string
	MaxResults    int
}

// SearchResult is one organic result.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	AnswerBox *struct {
		Title   string `json:"title"`
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
	KnowledgeGraph *struct {
		Title       string `json:"title"`
		Type        string `json:"type"`
		Description string `json:"description"`
	} `json:"knowledgeGraph"`
	Organic []SearchResult `json:"organic"`
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "Searches the web and returns the top 10 results. Parameters: 'query' (string, required - the search query). Returns a list of results with title, link, and snippet for each."
}

func (t *WebSearchTool) Execute(ctx context.Context, params Params) (string, error) {
	query, err := params.Require("query")
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	var b strings.Builder
	var results []SearchResult
	if t.APIKey != "" {
		sr, err := t.searchSerper(ctx, query)
		if err != nil {
			return "", fmt.Errorf("search failed: %w", err)
		}
		if sr.AnswerBox != nil {
			answer := sr.AnswerBox.Answer
			if answer == "" {
				answer = sr.AnswerBox.Snippet
			}
			if answer != "" {
				fmt.Fprintf(&b, "Answer: %s\n\n", answer)
			}
		}
		if kg := sr.KnowledgeGraph; kg != nil && kg.Title != "" {
			fmt.Fprintf(&b, "%s", kg.Title)
			if kg.Type != "" {
				fmt.Fprintf(&b, " (%s)", kg.Type)
			}
			if kg.Description != "" {
				fmt.Fprintf(&b, ": %s", kg.Description)
			}
			b.WriteString("\n\n")
		}
		results = sr.Organic
	} else {
		results, err = t.searchDuckDuckGo(ctx, query)
		if err != nil {
			return "", fmt.Errorf("search failed: %w", err)
		}
	}

	if limit := t.maxResults(); len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 && b.Len() == 0 {
		return "No results found for: " + query, nil
	}

	header := fmt.Sprintf("Search results for '%s':\n\n", query)
	var list strings.Builder
	for i, r := range results {
		fmt.Fprintf(&list, "%d. %s\n   %s\n", i+1, r.Title, r.Link)
		if r.Snippet != "" {
			fmt.Fprintf(&list, "   %s\n", r.Snippet)
		}
	}
	return strings.TrimRight(header+b.String()+list.String(), "\n"), nil
}

func (t *WebSearchTool) maxResults() int {
	if t.MaxResults > 0 {
		return t.MaxResults
	}
	return 10
}

func (t *WebSearchTool) searchSerper(ctx context.Context, query string) (*serperResponse, error) {
	endpoint := t.SerperURL
	if endpoint == "" {
		endpoint = DefaultSerperURL
	}
	payload, err := json.Marshal(map[string]any{"q": query, "num": t.maxResults()})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", t.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(t.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var sr serperResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &sr, nil
}

func (t *WebSearchTool) searchDuckDuckGo(ctx context.Context, query string) ([]SearchResult, error) {
	endpoint := t.DuckDuckGoURL
	if endpoint == "" {
		endpoint = DefaultDuckDuckGoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := httpClient(t.Client).Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return parseDuckDuckGo(string(body), t.maxResults())
}

func parseDuckDuckGo(doc string, limit int) ([]SearchResult, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") {
			if r := extractResult(n); r.Link != "" && r.Title != "" {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results, nil
}

func extractResult(n *html.Node) SearchResult {
	var r SearchResult
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				r.Link = attr(n, "href")
				r.Title = textContent(n)
			case hasClass(n, "result__snippet"):
				r.Snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	r.Link = unwrapRedirect(r.Link)
	return r
}

// unwrapRedirect resolves DuckDuckGo's //duckduckgo.com/l/?uddg=<target> links.
func unwrapRedirect(link string) string {
	if !strings.Contains(link, "duckduckgo.com/l/") {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
