package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	errs "twcrawler/pkg/errors"
	"twcrawler/pkg/logger"
	"twcrawler/pkg/metrics"
	"twcrawler/pkg/ratelimit"
)

// Credentials are the four OAuth1 secrets of an application acting for one account
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Complete reports whether all four secrets are present
func (c Credentials) Complete() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

// Options tune a Client. Zero values fall back to production defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Logger    logger.Logger
	Metrics   *metrics.Recorder

	// Proactive pacing per endpoint; nil means unlimited
	FollowerLimiter ratelimit.Limiter
	LookupLimiter   ratelimit.Limiter

	// HTTPClient supplies the transport that signed requests go through
	HTTPClient *http.Client
}

// Client talks to the Twitter v1.1 REST API with OAuth1-signed requests
type Client struct {
	httpClient      *http.Client
	baseURL         string
	userAgent       string
	logger          logger.Logger
	metrics         *metrics.Recorder
	followerLimiter ratelimit.Limiter
	lookupLimiter   ratelimit.Limiter

	mu        sync.Mutex
	lastReset time.Time
}

// NewClient performs the one-time OAuth1 setup and returns a ready client
func NewClient(creds Credentials, opts Options) (*Client, error) {
	if !creds.Complete() {
		return nil, errs.New(errs.ErrorTypeAuth, 0, "incomplete credentials: consumer key/secret and access token/secret are all required")
	}

	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.FollowerLimiter == nil {
		opts.FollowerLimiter = ratelimit.Unlimited{}
	}
	if opts.LookupLimiter == nil {
		opts.LookupLimiter = ratelimit.Unlimited{}
	}

	base := opts.HTTPClient
	if base == nil {
		base = &http.Client{}
	}

	oauthConfig := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)

	httpClient := oauthConfig.Client(ctx, token)
	httpClient.Timeout = opts.Timeout

	return &Client{
		httpClient:      httpClient,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		userAgent:       opts.UserAgent,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		followerLimiter: opts.FollowerLimiter,
		lookupLimiter:   opts.LookupLimiter,
	}, nil
}

// FollowerIDs fetches one page of follower ids for userID. Pass StartCursor for
// the first page; the returned page's NextCursor is zero after the last one.
func (c *Client) FollowerIDs(ctx context.Context, userID, cursor int64) (*IDsPage, error) {
	if err := c.followerLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + FollowersIDsPath + "?" + followerIDsQuery(userID, cursor).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	var page IDsPage
	if err := c.doJSON(req, EndpointFollowerIDs, &page); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched follower page", map[string]interface{}{
		"user_id":     userID,
		"cursor":      cursor,
		"ids":         len(page.IDs),
		"next_cursor": page.NextCursor,
	})
	return &page, nil
}

// LookupUsers hydrates up to MaxLookupBatch ids. Ids the provider does not
// return (suspended, deleted) are simply absent from the result.
func (c *Client) LookupUsers(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxLookupBatch {
		return nil, fmt.Errorf("lookup batch of %d ids exceeds limit of %d", len(ids), MaxLookupBatch)
	}

	if err := c.lookupLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := lookupForm(ids).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+UsersLookupPath, strings.NewReader(body))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var users []User
	if err := c.doJSON(req, EndpointUsersLookup, &users); err != nil {
		// 404 here means none of the ids matched a live account
		if errs.TypeOf(err) == errs.ErrorTypeNotFound {
			return []User{}, nil
		}
		return nil, err
	}
	return users, nil
}

// VerifyCredentials returns the account the credentials act for
func (c *Client) VerifyCredentials(ctx context.Context) (*User, error) {
	u := c.baseURL + VerifyCredentialsPath + "?skip_status=true&include_entities=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	var user User
	if err := c.doJSON(req, EndpointVerifyCredentials, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RateLimitReset returns the most recent window reset the provider reported
func (c *Client) RateLimitReset() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastReset
}

func (c *Client) doJSON(req *http.Request, endpoint string, target interface{}) error {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.metrics.ObserveRequest(endpoint, 0, duration)
		// Cancellation is the caller's decision, not a provider failure
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"endpoint": endpoint,
			"duration": duration,
		}).Error("HTTP request failed")
		return errs.New(errs.ErrorTypeNetwork, 0, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.metrics.ObserveRequest(endpoint, resp.StatusCode, duration)
	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":    req.Method,
		"endpoint":  endpoint,
		"status":    resp.StatusCode,
		"duration":  duration,
		"remaining": resp.Header.Get("x-rate-limit-remaining"),
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.New(errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := c.checkResponse(resp, endpoint, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"endpoint":     endpoint,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errs.New(errs.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}
	return nil
}

// checkResponse maps status codes and provider error codes onto typed errors
func (c *Client) checkResponse(resp *http.Response, endpoint string, body []byte) error {
	reset := parseReset(resp.Header.Get("x-rate-limit-reset"))
	if !reset.IsZero() {
		c.mu.Lock()
		c.lastReset = reset
		c.mu.Unlock()
	}

	code, message := 0, ""
	if resp.StatusCode >= 400 {
		code, message = parseErrorBody(body)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusTooManyRequests || code == codeRateLimited {
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"reset_at": reset,
		})
		e := errs.New(errs.ErrorTypeRateLimit, resp.StatusCode, "rate limit exceeded on %s", endpoint)
		e.Reset = reset
		return e
	}

	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		code == codeBadAuth, code == codeInvalidToken:
		c.logger.WarnWithFields("authorization error", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"code":     code,
		})
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "%s", message)
	case resp.StatusCode == http.StatusNotFound, code == codeNoUserMatches:
		return errs.New(errs.ErrorTypeNotFound, resp.StatusCode, "%s", message)
	case resp.StatusCode >= 500, code == codeOverCapacity, code == codeInternalError:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"endpoint": endpoint,
			"status":   resp.StatusCode,
			"code":     code,
		})
		return errs.New(errs.ErrorTypeServerError, resp.StatusCode, "%s", message)
	default:
		return errs.New(errs.ErrorTypeUnknown, resp.StatusCode, "unexpected status %d: %s", resp.StatusCode, message)
	}
}

func parseErrorBody(body []byte) (int, string) {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return 0, ""
	}
	if len(er.Errors) > 0 {
		return er.Errors[0].Code, er.Errors[0].Message
	}
	return 0, er.Error
}

// parseReset reads the unix-seconds x-rate-limit-reset header
func parseReset(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}
	}
	return time.Unix(secs, 0)
}
