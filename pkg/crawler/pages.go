package crawler

import (
	"context"
	"errors"

	"twcrawler/pkg/twitter"
)

// ErrNoMorePages is returned by FollowerPages.Next once the provider has
// signalled the end of the listing
var ErrNoMorePages = errors.New("no more follower pages")

// Provider is the upstream the crawler reads from. *twitter.Client satisfies it.
type Provider interface {
	FollowerIDs(ctx context.Context, userID, cursor int64) (*twitter.IDsPage, error)
	LookupUsers(ctx context.Context, ids []int64) ([]twitter.User, error)
}

// FollowerPages walks the cursored follower listing of one user. A failed
// Next leaves the cursor where it was, so calling Next again retries the
// same page.
type FollowerPages struct {
	provider Provider
	userID   int64
	cursor   int64
	pages    int
	done     bool
}

// NewFollowerPages starts at the first page of userID's followers
func NewFollowerPages(provider Provider, userID int64) *FollowerPages {
	return &FollowerPages{
		provider: provider,
		userID:   userID,
		cursor:   twitter.StartCursor,
	}
}

// Next fetches the page at the current cursor
func (it *FollowerPages) Next(ctx context.Context) (*twitter.IDsPage, error) {
	if it.done {
		return nil, ErrNoMorePages
	}

	page, err := it.provider.FollowerIDs(ctx, it.userID, it.cursor)
	if err != nil {
		return nil, err
	}

	it.pages++
	it.cursor = page.NextCursor
	if page.Last() {
		it.done = true
	}
	return page, nil
}

// Cursor returns the cursor the next call to Next will request
func (it *FollowerPages) Cursor() int64 {
	return it.cursor
}

// Pages returns how many pages were fetched
func (it *FollowerPages) Pages() int {
	return it.pages
}
