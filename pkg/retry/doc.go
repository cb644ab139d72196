// Package retry runs an operation until it succeeds, fails with an error the
// predicate rejects, or the context ends.
//
// The crawler's rate-limit handling is one configuration of it:
//
//	cfg := retry.RateLimitConfig(ctx, 15*time.Minute)
//	page, err := retry.DoWithResult(func() (*twitter.IDsPage, error) {
//		return client.FollowerIDs(ctx, id, cursor)
//	}, cfg)
//
// MaxAttempts of zero means no upper bound; the sleep between attempts is
// always interruptible through the context.
package retry
