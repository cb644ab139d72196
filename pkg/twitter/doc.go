// Package twitter is a small client for the two Twitter v1.1 endpoints the
// crawler needs: followers/ids for cursored follower listings and users/lookup
// for hydrating up to 100 ids at a time.
//
// Every failure is returned as a *errors.Error. A 429 response or provider
// error code 88 becomes ErrorTypeRateLimit, with the x-rate-limit-reset header
// (when present) carried in Reset.
package twitter
