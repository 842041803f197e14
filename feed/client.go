package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/sorane/community-archiver/logger"
	"github.com/sorane/community-archiver/utils"
)

const (
	siteRoot  = "https://www.youtube.com"
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	postRe        = regexp.MustCompile(`^(?:(?:https?://)?(?:.*?\.)?(?:youtube\.com/)(?:(?:channel/UC[a-zA-Z0-9_-]+/community\?lb=)|post/))?(Ug[a-zA-Z0-9_-]+)(?:.*)?$`)
	channelRe     = regexp.MustCompile(`^(?:(?:https?://)?(?:.*?\.)?(?:youtube\.com/))(?:(@[a-zA-Z0-9_.-]+)|(?:(?:channel/)?(UC[a-zA-Z0-9_-]+)))(?:/.*)?$`)
	handleToIDRe  = regexp.MustCompile(`"channelId":"(UC[a-zA-Z0-9_-]+)"`)
	initialDataRe = regexp.MustCompile(`(?s)var ytInitialData\s*=\s*(\{.*?\});\s*</script>`)
	apiKeyRe      = regexp.MustCompile(`"INNERTUBE_API_KEY":"([^"]+)"`)
)

// FetchError means the feed source was unreachable or returned something
// unparseable. Channel-scoped: it aborts the current channel's run only.
type FetchError struct {
	Target string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Target, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches community posts as raw payload maps.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client, optionally seeded with a cookies.txt file for
// member-only feeds.
func NewClient(cookiesPath string) (*Client, error) {
	jar, err := newCookieJar(cookiesPath)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}, nil
}

// Fetch resolves the target URL (single post or whole channel) and returns
// the raw payloads, ordered oldest first.
func (c *Client) Fetch(ctx context.Context, target string) ([]map[string]any, error) {
	if m := postRe.FindStringSubmatch(target); m != nil {
		logger.Logger.Printf("[INFO] Resolving post URL: %s", target)
		payload, err := c.fetchPost(ctx, m[1])
		if err != nil {
			return nil, err
		}
		return []map[string]any{payload}, nil
	}

	if m := channelRe.FindStringSubmatch(target); m != nil {
		channelID := m[2]
		if handle := m[1]; handle != "" {
			id, err := c.resolveHandle(ctx, handle)
			if err != nil {
				return nil, err
			}
			logger.Logger.Printf("[INFO] Resolved channel handle %s -> %s", handle, id)
			channelID = id
		}
		logger.Logger.Printf("[INFO] Resolving channel URL: %s", target)
		return c.fetchChannelPosts(ctx, channelID)
	}

	return nil, &FetchError{Target: target, Err: fmt.Errorf("unrecognized target URL")}
}

// fetchPost loads one post's detail page and extracts its payload.
func (c *Client) fetchPost(ctx context.Context, postID string) (map[string]any, error) {
	page, err := c.getPage(ctx, siteRoot+"/post/"+postID)
	if err != nil {
		return nil, err
	}
	data, err := initialData(page)
	if err != nil {
		return nil, &FetchError{Target: postID, Err: err}
	}
	renderers := findRenderers(data, "backstagePostRenderer")
	if len(renderers) == 0 {
		return nil, &FetchError{Target: postID, Err: fmt.Errorf("no post renderer in response")}
	}
	channelID := ""
	if m := handleToIDRe.FindStringSubmatch(page); m != nil {
		channelID = m[1]
	}
	return rawPayload(renderers[0], channelID), nil
}

// fetchChannelPosts walks the channel's community tab, following
// continuation tokens until the feed is exhausted.
func (c *Client) fetchChannelPosts(ctx context.Context, channelID string) ([]map[string]any, error) {
	page, err := c.getPage(ctx, siteRoot+"/channel/"+channelID+"/community")
	if err != nil {
		return nil, err
	}
	data, err := initialData(page)
	if err != nil {
		return nil, &FetchError{Target: channelID, Err: err}
	}

	apiKey := ""
	if m := apiKeyRe.FindStringSubmatch(page); m != nil {
		apiKey = m[1]
	}

	var payloads []map[string]any
	pageCount := 1
	for {
		logger.Logger.Printf("[INFO] Fetching community posts (page %d)", pageCount)
		for _, renderer := range findRenderers(data, "backstagePostRenderer") {
			payloads = append(payloads, rawPayload(renderer, channelID))
		}

		token := continuationToken(data)
		if token == "" || apiKey == "" {
			break
		}
		pageCount++
		data, err = c.browseContinuation(ctx, apiKey, token)
		if err != nil {
			return nil, err
		}
	}

	logger.Logger.Printf("[INFO] Found %d community posts", len(payloads))

	// The feed lists newest first; the pipeline records oldest first.
	for i, j := 0, len(payloads)-1; i < j; i, j = i+1, j-1 {
		payloads[i], payloads[j] = payloads[j], payloads[i]
	}
	return payloads, nil
}

// browseContinuation requests the next feed page from the browse endpoint.
func (c *Client) browseContinuation(ctx context.Context, apiKey, token string) (map[string]any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    "WEB",
				"clientVersion": "2.20240101.00.00",
			},
		},
		"continuation": token,
	})
	if err != nil {
		return nil, err
	}

	url := siteRoot + "/youtubei/v1/browse?key=" + apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Target: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Target: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, &FetchError{Target: url, Err: err}
	}
	return data, nil
}

// resolveHandle converts an @handle into its channel id by scraping the
// channel home page.
func (c *Client) resolveHandle(ctx context.Context, handle string) (string, error) {
	page, err := c.getPage(ctx, siteRoot+"/"+handle)
	if err != nil {
		return "", err
	}
	if m := handleToIDRe.FindStringSubmatch(page); m != nil {
		return m[1], nil
	}
	return "", &FetchError{Target: handle, Err: fmt.Errorf("no channel id in channel page, the page format may have changed")}
}

func (c *Client) getPage(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &FetchError{Target: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{Target: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Target: url, Err: err}
	}
	return string(body), nil
}

// initialData extracts the embedded ytInitialData JSON blob from a page.
func initialData(page string) (map[string]any, error) {
	m := initialDataRe.FindStringSubmatch(page)
	if m == nil {
		return nil, fmt.Errorf("no initial data in page")
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(m[1]), &data); err != nil {
		return nil, fmt.Errorf("malformed initial data: %w", err)
	}
	return data, nil
}

// findRenderers collects every value stored under the given renderer key.
// Feed items sit in arrays, which keep their order; sibling map keys are
// visited sorted so the result is deterministic.
func findRenderers(node any, key string) []map[string]any {
	var found []map[string]any
	switch n := node.(type) {
	case map[string]any:
		if v, ok := n[key].(map[string]any); ok {
			found = append(found, v)
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			found = append(found, findRenderers(n[k], key)...)
		}
	case []any:
		for _, v := range n {
			found = append(found, findRenderers(v, key)...)
		}
	}
	return found
}

// continuationToken digs the next-page token out of a feed response, or ""
// when the feed is exhausted.
func continuationToken(data map[string]any) string {
	for _, renderer := range findRenderers(data, "continuationItemRenderer") {
		token := utils.GetString(renderer, []any{"continuationEndpoint", "continuationCommand", "token"}, "")
		if token != "" {
			return token
		}
	}
	return ""
}

// rawPayload reshapes a post renderer into the archived payload layout.
func rawPayload(renderer map[string]any, channelID string) map[string]any {
	return map[string]any{
		"post_id":    utils.GetString(renderer, []any{"postId"}, ""),
		"channel_id": channelID,
		"author": map[string]any{
			"authorText":      renderer["authorText"],
			"authorThumbnail": renderer["authorThumbnail"],
			"authorEndpoint":  renderer["authorEndpoint"],
		},
		"content_text":         renderer["contentText"],
		"backstage_attachment": renderer["backstageAttachment"],
		"sponsor_only_badge":   renderer["sponsorsOnlyBadge"],
	}
}
