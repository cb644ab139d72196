package twitter

// IDsPage is one page of a cursored id listing
type IDsPage struct {
	IDs               []int64 `json:"ids"`
	NextCursor        int64   `json:"next_cursor"`
	NextCursorStr     string  `json:"next_cursor_str,omitempty"`
	PreviousCursor    int64   `json:"previous_cursor"`
	PreviousCursorStr string  `json:"previous_cursor_str,omitempty"`
}

// Last reports whether no further page follows this one
func (p *IDsPage) Last() bool {
	return p.NextCursor == 0
}

// User is the subset of the user object the crawler reads
type User struct {
	ID             int64  `json:"id"`
	IDStr          string `json:"id_str"`
	ScreenName     string `json:"screen_name"`
	FollowersCount int    `json:"followers_count"`
	Protected      bool   `json:"protected"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
	// Some endpoints answer with a bare "error" string instead
	Error string `json:"error"`
}
