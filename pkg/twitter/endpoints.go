package twitter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the production API host
	BaseURL = "https://api.twitter.com"

	FollowersIDsPath      = "/1.1/followers/ids.json"
	UsersLookupPath       = "/1.1/users/lookup.json"
	VerifyCredentialsPath = "/1.1/account/verify_credentials.json"

	// StartCursor requests the first page of a cursored listing
	StartCursor int64 = -1

	// FollowerPageSize is the largest page followers/ids will return
	FollowerPageSize = 5000

	// MaxLookupBatch is the most ids users/lookup accepts per call
	MaxLookupBatch = 100
)

// Endpoint names used in logs and metrics
const (
	EndpointFollowerIDs       = "followers/ids"
	EndpointUsersLookup       = "users/lookup"
	EndpointVerifyCredentials = "account/verify_credentials"
)

// Provider error codes carried in the JSON error body
const (
	codeNoUserMatches = 17
	codeBadAuth       = 32
	codeRateLimited   = 88
	codeInvalidToken  = 89
	codeOverCapacity  = 130
	codeInternalError = 131
)

func followerIDsQuery(userID, cursor int64) url.Values {
	params := url.Values{}
	params.Set("user_id", strconv.FormatInt(userID, 10))
	params.Set("cursor", strconv.FormatInt(cursor, 10))
	params.Set("count", strconv.Itoa(FollowerPageSize))
	params.Set("stringify_ids", "false")
	return params
}

func lookupForm(ids []int64) url.Values {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	form := url.Values{}
	form.Set("user_id", strings.Join(parts, ","))
	form.Set("include_entities", "false")
	return form
}
