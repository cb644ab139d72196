package crawler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twcrawler/pkg/crawler"
	"twcrawler/pkg/logger"
	"twcrawler/pkg/metadata"
	"twcrawler/pkg/metrics"
	"twcrawler/pkg/storage"
	"twcrawler/pkg/twitter"
	"twcrawler/pkg/twitter/twittertest"
)

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestCrawlAgainstFakeAPI(t *testing.T) {
	srv := twittertest.NewServer()
	defer srv.Close()
	srv.PageSize = 2

	srv.SetFollowers(42, 1, 2, 3, 4, 5)
	srv.SetFollowersCount(1, 10)
	srv.SetFollowersCount(2, 500)
	srv.SetFollowersCount(3, 399)
	srv.SetFollowersCount(4, 400)
	// 5 has no profile, as if suspended
	srv.SetFollowers(1, 6)
	srv.SetFollowersCount(6, 0)

	// rate limit the second follower page of 42 once, and the first lookup once
	srv.Inject(twittertest.Fault{Endpoint: twitter.EndpointFollowerIDs, UserID: 42, Page: 1, Status: 429, Code: 88, Times: 1})
	srv.Inject(twittertest.Fault{Endpoint: twitter.EndpointUsersLookup, Status: 429, Code: 88, Times: 1})
	// 3's followers are protected
	srv.Inject(twittertest.Fault{Endpoint: twitter.EndpointFollowerIDs, UserID: 3, Page: -1, Status: 401, Code: 0})

	rec := metrics.New()
	client, err := twitter.NewClient(twitter.Credentials{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	}, twitter.Options{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Logger:  logger.NewTestLogger(),
		Metrics: rec,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "output2.txt")
	out, err := storage.OpenOutputLog(path)
	require.NoError(t, err)
	defer out.Close()

	c := crawler.New(client, out, crawler.Config{Sleep: noSleep, Metrics: rec})
	res, err := c.Run(context.Background(), 42)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	records, err := storage.ReadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, []storage.Record{
		{ID: 42, Survivors: []int64{1, 3}},
		{ID: 1, Survivors: []int64{6}},
		{ID: 3, Survivors: []int64{}},
		{ID: 6, Survivors: []int64{}},
	}, records)

	assert.Equal(t, metadata.TerminationFrontierExhausted, res.Termination)
	assert.Equal(t, 2, res.RateLimitWaits)
	assert.Equal(t, 1, res.ProviderErrors)
	assert.Zero(t, srv.UnsignedRequests())

	resp := httptest.NewRecorder()
	rec.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := resp.Body.String()
	assert.Contains(t, body, "twcrawler_expanded_total 4")
	assert.Contains(t, body, `twcrawler_rate_limited_total{endpoint="followers/ids"} 1`)
	assert.Contains(t, body, `twcrawler_provider_errors_total{stage="pages",type="auth"} 1`)
}
