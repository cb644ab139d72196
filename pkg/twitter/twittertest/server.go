// Package twittertest runs an in-memory stand-in for the Twitter v1.1
// endpoints used by the crawler.
package twittertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"twcrawler/pkg/twitter"
)

// Fault makes matching requests fail instead of being served
type Fault struct {
	Endpoint string // twitter.EndpointFollowerIDs or twitter.EndpointUsersLookup
	UserID   int64  // followers/ids only; 0 matches any user
	Page     int    // followers/ids page index; -1 matches any page
	Status   int
	Code     int    // provider error code in the JSON body, 0 for none
	Times    int    // 0 fails every matching request
	Reset    time.Time
}

// FollowerCall records one followers/ids request
type FollowerCall struct {
	UserID int64
	Cursor int64
}

// Server is an httptest server holding a tiny follower graph
type Server struct {
	*httptest.Server

	// PageSize caps ids per followers/ids page
	PageSize int

	mu          sync.Mutex
	followers   map[int64][]int64
	counts      map[int64]int
	faults      []*Fault
	followerLog []FollowerCall
	lookupLog   [][]int64
	unsigned    int
}

// NewServer starts a server; callers must Close it
func NewServer() *Server {
	s := &Server{
		PageSize:  twitter.FollowerPageSize,
		followers: make(map[int64][]int64),
		counts:    make(map[int64]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(twitter.FollowersIDsPath, s.handleFollowerIDs)
	mux.HandleFunc(twitter.UsersLookupPath, s.handleLookup)
	mux.HandleFunc(twitter.VerifyCredentialsPath, s.handleVerify)
	s.Server = httptest.NewServer(mux)
	return s
}

// SetFollowers sets the follower list of id in provider order
func (s *Server) SetFollowers(id int64, followers ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers[id] = append([]int64(nil), followers...)
}

// SetFollowersCount registers a user profile. Ids without a count are treated
// as suspended and left out of lookup responses.
func (s *Server) SetFollowersCount(id int64, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[id] = count
}

// Inject queues a fault
func (s *Server) Inject(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fault := f
	s.faults = append(s.faults, &fault)
}

// FollowerCalls returns every followers/ids request seen so far
func (s *Server) FollowerCalls() []FollowerCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FollowerCall(nil), s.followerLog...)
}

// LookupCalls returns the id batch of every users/lookup request seen so far
func (s *Server) LookupCalls() [][]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]int64, len(s.lookupLog))
	for i, batch := range s.lookupLog {
		out[i] = append([]int64(nil), batch...)
	}
	return out
}

// UnsignedRequests counts requests that arrived without an OAuth header
func (s *Server) UnsignedRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsigned
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
		return true
	}
	s.mu.Lock()
	s.unsigned++
	s.mu.Unlock()
	writeError(w, http.StatusUnauthorized, 32, "Could not authenticate you.", time.Time{})
	return false
}

// takeFault returns the first matching fault, consuming one use of it
func (s *Server) takeFault(endpoint string, userID int64, page int) *Fault {
	for i, f := range s.faults {
		if f.Endpoint != endpoint {
			continue
		}
		if endpoint == twitter.EndpointFollowerIDs {
			if f.UserID != 0 && f.UserID != userID {
				continue
			}
			if f.Page >= 0 && f.Page != page {
				continue
			}
		}
		if f.Times > 0 {
			f.Times--
			if f.Times == 0 {
				s.faults = append(s.faults[:i], s.faults[i+1:]...)
			}
		}
		return f
	}
	return nil
}

func (s *Server) handleFollowerIDs(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}

	q := r.URL.Query()
	userID, err := strconv.ParseInt(q.Get("user_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, 44, "user_id parameter is invalid.", time.Time{})
		return
	}
	cursor, err := strconv.ParseInt(q.Get("cursor"), 10, 64)
	if err != nil {
		cursor = twitter.StartCursor
	}

	// Cursor -1 is page 0; cursor n > 0 is page n-1
	page := 0
	if cursor > 0 {
		page = int(cursor - 1)
	}

	s.mu.Lock()
	s.followerLog = append(s.followerLog, FollowerCall{UserID: userID, Cursor: cursor})
	fault := s.takeFault(twitter.EndpointFollowerIDs, userID, page)
	all := s.followers[userID]
	size := s.PageSize
	s.mu.Unlock()

	if fault != nil {
		writeError(w, fault.Status, fault.Code, http.StatusText(fault.Status), fault.Reset)
		return
	}

	start := page * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}

	resp := twitter.IDsPage{IDs: append([]int64{}, all[start:end]...)}
	if end < len(all) {
		resp.NextCursor = int64(page + 2)
	}
	if page > 0 {
		resp.PreviousCursor = int64(page)
	}
	resp.NextCursorStr = strconv.FormatInt(resp.NextCursor, 10)
	resp.PreviousCursorStr = strconv.FormatInt(resp.PreviousCursor, 10)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, 0, err.Error(), time.Time{})
		return
	}

	var ids []int64
	for _, part := range strings.Split(r.PostForm.Get("user_id"), ",") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, 44, "user_id parameter is invalid.", time.Time{})
			return
		}
		ids = append(ids, id)
	}
	if len(ids) > twitter.MaxLookupBatch {
		writeError(w, http.StatusForbidden, 18, "Too many terms specified in query.", time.Time{})
		return
	}

	s.mu.Lock()
	s.lookupLog = append(s.lookupLog, ids)
	fault := s.takeFault(twitter.EndpointUsersLookup, 0, -1)
	users := make([]twitter.User, 0, len(ids))
	for _, id := range ids {
		if count, ok := s.counts[id]; ok {
			users = append(users, twitter.User{
				ID:             id,
				IDStr:          strconv.FormatInt(id, 10),
				ScreenName:     "user" + strconv.FormatInt(id, 10),
				FollowersCount: count,
			})
		}
	}
	s.mu.Unlock()

	if fault != nil {
		writeError(w, fault.Status, fault.Code, http.StatusText(fault.Status), fault.Reset)
		return
	}
	if len(users) == 0 {
		writeError(w, http.StatusNotFound, 17, "No user matches for specified terms.", time.Time{})
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, twitter.User{ID: 1, IDStr: "1", ScreenName: "crawler"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, message string, reset time.Time) {
	if !reset.IsZero() {
		w.Header().Set("x-rate-limit-reset", strconv.FormatInt(reset.Unix(), 10))
	}
	body := map[string]interface{}{}
	if code != 0 {
		body["errors"] = []map[string]interface{}{{"code": code, "message": message}}
	} else {
		body["error"] = message
	}
	writeJSON(w, status, body)
}
