// Package ui holds the operator-facing side of a crawl: the seed prompt,
// short status lines, an optional in-place progress line and desktop
// notifications.
package ui
