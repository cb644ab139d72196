package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowKeysGuide writes instructions for obtaining the four OAuth1 secrets
func ShowKeysGuide(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w, "TWITTER API KEYS")
	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The crawler signs every request with OAuth1 user context.")
	fmt.Fprintln(w, "You need four values from the developer portal:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  1. Open https://developer.twitter.com/en/portal/dashboard")
	fmt.Fprintln(w, "  2. Select your project's app, then 'Keys and tokens'")
	fmt.Fprintln(w, "  3. Under 'Consumer Keys' copy the API Key and API Key Secret")
	fmt.Fprintln(w, "  4. Under 'Authentication Tokens' generate an Access Token and Secret")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  consumer key     -> API Key")
	fmt.Fprintln(w, "  consumer secret  -> API Key Secret")
	fmt.Fprintln(w, "  access token     -> Access Token")
	fmt.Fprintln(w, "  access secret    -> Access Token Secret")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Alternatively export %s, %s,\n", EnvConsumerKey, EnvConsumerSecret)
	fmt.Fprintf(w, "%s and %s.\n", EnvAccessToken, EnvAccessSecret)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Secrets are kept in the system keyring, or an encrypted file when no")
	fmt.Fprintln(w, "keyring is available. Never share them.")
	fmt.Fprintln(w, strings.Repeat("=", 72))
}
