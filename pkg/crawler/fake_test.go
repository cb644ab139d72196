package crawler

import (
	"context"
	"errors"
	"sync"
	"time"

	errs "twcrawler/pkg/errors"
	"twcrawler/pkg/twitter"
)

type pageKey struct {
	user   int64
	cursor int64
}

// fakeProvider serves a follower graph from memory. Queued errors are
// returned, one per call, before the real answer.
type fakeProvider struct {
	pageSize  int
	followers map[int64][]int64
	counts    map[int64]int

	pageErrs   map[pageKey][]error
	lookupErrs []error

	followerCalls []pageKey
	lookupCalls   [][]int64

	// onLookup runs inside every lookup call
	onLookup func()
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		pageSize:  twitter.FollowerPageSize,
		followers: make(map[int64][]int64),
		counts:    make(map[int64]int),
		pageErrs:  make(map[pageKey][]error),
	}
}

func (f *fakeProvider) user(id int64, followersCount int, followers ...int64) {
	f.counts[id] = followersCount
	f.followers[id] = followers
}

func (f *fakeProvider) failPage(user, cursor int64, err error) {
	k := pageKey{user, cursor}
	f.pageErrs[k] = append(f.pageErrs[k], err)
}

func (f *fakeProvider) FollowerIDs(ctx context.Context, userID, cursor int64) (*twitter.IDsPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := pageKey{userID, cursor}
	f.followerCalls = append(f.followerCalls, k)

	if queued := f.pageErrs[k]; len(queued) > 0 {
		f.pageErrs[k] = queued[1:]
		return nil, queued[0]
	}

	page := 0
	if cursor != twitter.StartCursor {
		page = int(cursor) - 1
	}
	all := f.followers[userID]
	start := min(page*f.pageSize, len(all))
	end := min(start+f.pageSize, len(all))

	next := int64(0)
	if end < len(all) {
		next = int64(page + 2)
	}
	return &twitter.IDsPage{IDs: append([]int64(nil), all[start:end]...), NextCursor: next}, nil
}

func (f *fakeProvider) LookupUsers(ctx context.Context, ids []int64) ([]twitter.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.lookupCalls = append(f.lookupCalls, append([]int64(nil), ids...))
	if f.onLookup != nil {
		f.onLookup()
	}

	if len(f.lookupErrs) > 0 {
		err := f.lookupErrs[0]
		f.lookupErrs = f.lookupErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	var users []twitter.User
	for _, id := range ids {
		if count, ok := f.counts[id]; ok {
			users = append(users, twitter.User{ID: id, FollowersCount: count})
		}
	}
	return users, nil
}

type record struct {
	id        int64
	survivors []int64
}

type memoryLog struct {
	records []record
	err     error
}

func (m *memoryLog) WriteRecord(id int64, survivors []int64) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record{id, append([]int64(nil), survivors...)})
	return nil
}

func (m *memoryLog) ids() []int64 {
	out := make([]int64, len(m.records))
	for i, r := range m.records {
		out[i] = r.id
	}
	return out
}

type recordingReporter struct {
	mu          sync.Mutex
	skipped     []int64
	chunks      []int
	rateLimited []string
	expanded    []int64
	exhausted   bool
}

func (r *recordingReporter) Skipping(id int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, id)
}

func (r *recordingReporter) ChunkSkipped(offset int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, offset)
}

func (r *recordingReporter) RateLimited(endpoint string, cooldown time.Duration, reset time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rateLimited = append(r.rateLimited, endpoint)
}

func (r *recordingReporter) Expanded(id int64, survivors []int64, frontier int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expanded = append(r.expanded, id)
}

func (r *recordingReporter) Exhausted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exhausted = true
}

// sleepRecorder stands in for the cooldown wait
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func rateLimited() error {
	return errs.New(errs.ErrorTypeRateLimit, 88, "Rate limit exceeded")
}

func notAuthorized() error {
	return errs.New(errs.ErrorTypeAuth, 401, "Not authorized.")
}

var errBoom = errors.New("boom")
