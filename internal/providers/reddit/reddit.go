// Package reddit implements the Reddit adapter (C5): OAuth2
// client_credentials authentication, post-URL parsing, and depth-capped
// comment-tree flattening, per spec.md §4.5/§9. Token caching and
// single-flight refresh are delegated to golang.org/x/oauth2/clientcredentials
// (adopted per SPEC_FULL.md §3 — the wider pack carries x/oauth2 even though
// the teacher itself doesn't), whose TokenSource is wrapped in
// oauth2.ReuseTokenSource internally and already serializes concurrent
// refreshes behind a mutex, which is exactly the single-flight primitive
// spec.md §9's design note requires.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gomind-research/procmind/internal/logging"
	"github.com/gomind-research/procmind/internal/procerr"
	"github.com/gomind-research/procmind/internal/providers"
	"github.com/gomind-research/procmind/internal/retry"
	"github.com/gomind-research/procmind/internal/telemetry"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultBaseURL  = "https://oauth.reddit.com"
	maxCommentDepth = 10
)

var postURLPattern = regexp.MustCompile(`reddit\.com/r/([A-Za-z0-9_]+)/comments/([A-Za-z0-9]+)`)

// PostMetadata is spec.md §3's post_metadata half of the Reddit response.
type PostMetadata struct {
	Title       string
	Author      string
	Score       int
	NumComments int
	Permalink   string
}

// Comment is one flattened, depth-tagged node from the comment tree.
type Comment struct {
	Author string
	Body   string
	Score  int
	Depth  int
}

// Result is spec.md §3's Reddit AdapterResponse:
// { post_metadata, ordered comments, allocated_comments }.
type Result struct {
	Post              PostMetadata
	Comments          []Comment
	AllocatedComments int
}

// Client is the Reddit provider adapter. One Client instance owns one
// cached access token; construct a single instance per process, not per
// request, or the cache (and its correctness benefit) is lost.
type Client struct {
	base        *providers.BaseClient
	tokenSource oauth2.TokenSource
}

// New builds a Client. baseURL overrides the OAuth API host (tests point
// this at an httptest.Server); tokenURL overrides the token endpoint the
// same way.
func New(clientID, clientSecret, baseURL, tokenURL string, logger logging.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &Client{
		base:        providers.NewBaseClient("", baseURL, providers.DefaultCallDeadline, logger),
		tokenSource: cfg.TokenSource(context.Background()),
	}
}

// WithTelemetry wires a Provider into the client so every outbound call
// made through Do is wrapped in a span, and so fan-out batches run against
// this client (redditResearch's FetchPost fan-out) can start a job span of
// their own; it returns the receiver for chaining off New.
func (c *Client) WithTelemetry(t *telemetry.Provider) *Client {
	c.base.SetTelemetry(t)
	return c
}

// Telemetry returns the Provider wired via WithTelemetry (nil if none),
// for callers outside this package that need to start their own spans
// around a batch of calls through this client, e.g.
// internal/research.RedditResearch's fan-out job.
func (c *Client) Telemetry() *telemetry.Provider { return c.base.Telemetry }

// Logger returns the logger wired in at construction, for the same
// cross-package span/log-correlation use as Telemetry.
func (c *Client) Logger() logging.Logger { return c.base.Logger }

// ParsePostURL extracts {subreddit, post_id} from a Reddit post URL, per
// spec.md §4.5: unparseable URLs are rejected as InvalidInput.
func ParsePostURL(postURL string) (subreddit, postID string, classified *procerr.Classified) {
	m := postURLPattern.FindStringSubmatch(postURL)
	if m == nil {
		return "", "", &procerr.Classified{
			Kind:      procerr.InvalidInput,
			Message:   fmt.Sprintf("could not parse subreddit/post id from URL %q", postURL),
			Retryable: false,
		}
	}
	return m[1], m[2], nil
}

// FetchPost retrieves a post listing and its comment tree, flattened
// depth-first (parent before children, siblings by descending score),
// depth-capped at 10 levels, stopping once commentLimit comments have been
// collected. Deleted-author nodes are filtered out.
func (c *Client) FetchPost(ctx context.Context, postURL string, commentLimit int) (*Result, *procerr.Classified) {
	subreddit, postID, classified := ParsePostURL(postURL)
	if classified != nil {
		return nil, classified
	}

	result, classifiedErr := retry.Run(ctx, retry.DefaultPolicy(), func(ctx context.Context) (*Result, error) {
		return c.fetchPostOnce(ctx, subreddit, postID, commentLimit)
	})
	if classifiedErr != nil {
		return nil, classifiedErr
	}
	return result, nil
}

func (c *Client) fetchPostOnce(ctx context.Context, subreddit, postID string, commentLimit int) (*Result, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, procerr.Classify(fmt.Errorf("acquiring reddit access token: %w", err))
	}

	endpoint := fmt.Sprintf("%s/r/%s/comments/%s?limit=%d&depth=%d&sort=top",
		c.base.BaseURL, url.PathEscape(subreddit), url.PathEscape(postID), commentLimit, maxCommentDepth)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building reddit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", "procmind/1.0")

	body, _, classified := c.base.Do(ctx, req)
	if classified != nil {
		return nil, classified
	}

	var listings []rawListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, procerr.Classify(fmt.Errorf("parsing reddit response JSON: %w", err))
	}
	if len(listings) < 2 {
		return nil, procerr.Classify(fmt.Errorf("unexpected reddit response shape: %d listings", len(listings)))
	}

	post := extractPostMetadata(listings[0])

	var comments []Comment
	remaining := commentLimit
	flattenComments(listings[1].Data, 0, &remaining, &comments)

	return &Result{Post: post, Comments: comments, AllocatedComments: commentLimit}, nil
}

type rawThing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type rawListing struct {
	Kind string         `json:"kind"`
	Data rawListingData `json:"data"`
}

type rawListingData struct {
	Children []rawThing `json:"children"`
}

type rawPostData struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Permalink   string `json:"permalink"`
}

type rawCommentData struct {
	Author  string          `json:"author"`
	Body    string          `json:"body"`
	Score   int             `json:"score"`
	Replies json.RawMessage `json:"replies"`
}

func extractPostMetadata(listing rawListing) PostMetadata {
	if len(listing.Data.Children) == 0 {
		return PostMetadata{}
	}
	var p rawPostData
	_ = json.Unmarshal(listing.Data.Children[0].Data, &p)
	return PostMetadata{Title: p.Title, Author: p.Author, Score: p.Score, NumComments: p.NumComments, Permalink: p.Permalink}
}

// flattenComments walks listingData depth-first: siblings are sorted by
// descending score before recursion, deleted-author nodes are skipped, and
// collection stops as soon as *remaining reaches zero or depth exceeds
// maxCommentDepth.
func flattenComments(listingData rawListingData, depth int, remaining *int, out *[]Comment) {
	if *remaining <= 0 || depth > maxCommentDepth {
		return
	}

	type parsed struct {
		data    rawCommentData
		replies json.RawMessage
	}
	items := make([]parsed, 0, len(listingData.Children))
	for _, child := range listingData.Children {
		if child.Kind != "t1" {
			continue
		}
		var d rawCommentData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			continue
		}
		if isDeletedAuthor(d.Author) {
			continue
		}
		items = append(items, parsed{data: d, replies: d.Replies})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].data.Score > items[j].data.Score
	})

	for _, it := range items {
		if *remaining <= 0 {
			return
		}
		*out = append(*out, Comment{Author: it.data.Author, Body: it.data.Body, Score: it.data.Score, Depth: depth})
		*remaining--

		if depth < maxCommentDepth {
			if childListing, ok := parseReplies(it.replies); ok {
				flattenComments(childListing, depth+1, remaining, out)
			}
		}
	}
}

func isDeletedAuthor(author string) bool {
	return author == "" || author == "[deleted]"
}

// parseReplies handles Reddit's API oddity where "replies" is either an
// empty string (no replies) or a nested Listing object.
func parseReplies(raw json.RawMessage) (rawListingData, bool) {
	if len(raw) == 0 {
		return rawListingData{}, false
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == `""` || trimmed == "null" {
		return rawListingData{}, false
	}
	var listing rawListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		return rawListingData{}, false
	}
	return listing.Data, true
}
