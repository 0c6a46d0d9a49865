// Package reddit is a minimal Reddit API client covering exactly what the
// bot needs: script-app authentication, pulling recent comments for a
// subreddit, and posting replies.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cagomez/forecastbot/internal/httputil"
	"github.com/cagomez/forecastbot/internal/metrics"
	"github.com/cagomez/forecastbot/internal/models"
)

const (
	defaultAuthURL = "https://www.reddit.com"
	defaultAPIURL  = "https://oauth.reddit.com"

	// Reddit asks for a descriptive, unique User-Agent and throttles
	// generic ones aggressively.
	userAgent = "forecastbot:github.com/cagomez/forecastbot (by /u/cagomez)"

	listingLimit = 100
)

// Credentials identify a Reddit "script" application and the account it
// posts as.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
}

type Client struct {
	creds   Credentials
	authURL string
	apiURL  string
	client  *http.Client

	token       string
	tokenExpiry time.Time
}

func NewClient(creds Credentials) *Client {
	return &Client{
		creds:   creds,
		authURL: defaultAuthURL,
		apiURL:  defaultAPIURL,
		client:  httputil.NewClientWithUserAgent(userAgent),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// ensureToken fetches an OAuth2 token via the password grant if the cached
// one is missing or within a minute of expiry.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return nil
	}

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", c.creds.Username)
	form.Set("password", c.creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/api/v1/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(c.creds.ClientID, c.creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, "token")
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("unmarshal token: %w", err)
	}
	if tok.Error != "" {
		return fmt.Errorf("fetch token: %s", tok.Error)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("fetch token: empty access_token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return nil
}

type listingResponse struct {
	Data struct {
		Children []struct {
			Data struct {
				ID     string `json:"id"`
				Author string `json:"author"`
				Body   string `json:"body"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Comments returns the most recent comments for a subreddit, oldest first,
// so callers process them in arrival order.
func (c *Client) Comments(ctx context.Context, subreddit string) ([]models.Comment, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/r/%s/comments?limit=%d", c.apiURL, url.PathEscape(subreddit), listingLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build comments request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	body, err := c.do(req, "comments")
	if err != nil {
		return nil, fmt.Errorf("fetch comments for r/%s: %w", subreddit, err)
	}

	var listing listingResponse
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}

	// Reddit lists newest first; reverse into arrival order.
	children := listing.Data.Children
	comments := make([]models.Comment, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		d := children[i].Data
		comments = append(comments, models.Comment{ID: d.ID, Author: d.Author, Body: d.Body})
	}
	return comments, nil
}

// Reply posts text as a reply to the comment with the given id.
func (c *Client) Reply(ctx context.Context, commentID, text string) error {
	if err := c.ensureToken(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("api_type", "json")
	form.Set("thing_id", "t1_"+commentID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/api/comment", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if _, err := c.do(req, "reply"); err != nil {
		return fmt.Errorf("reply to %s: %w", commentID, err)
	}
	return nil
}

// do executes a request with retries on rate limiting and server faults.
// The request body, if any, must be rebuildable; callers pass form bodies
// backed by strings so GetBody is always set.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	var body []byte
	operation := func() error {
		r := req
		if req.GetBody != nil {
			rb, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("rewind body: %w", err))
			}
			r = req.Clone(req.Context())
			r.Body = rb
		}

		resp, err := c.client.Do(r)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: %w", endpoint, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			metrics.RedditAPICallsTotal.WithLabelValues(endpoint, "retry").Inc()
			return fmt.Errorf("%s: retryable status %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			metrics.RedditAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("%s: status %d: %s", endpoint, resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%s: read body: %w", endpoint, err))
		}
		metrics.RedditAPICallsTotal.WithLabelValues(endpoint, "ok").Inc()
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, req.Context())); err != nil {
		return nil, err
	}
	return body, nil
}
