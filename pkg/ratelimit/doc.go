// Package ratelimit paces requests before they reach the provider.
//
// Pacing is optional. With zero requests configured, New returns Unlimited and
// the crawler relies only on the reactive cooldown after a rate-limit response.
//
//	lim, err := ratelimit.New(ratelimit.StrategySliding, 15, 15*time.Minute)
//	if err := lim.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
