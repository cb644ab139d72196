// Package checkpoint saves the crawl frontier so an interrupted run can be
// resumed with --resume.
//
// A checkpoint is keyed by seed id and lives under the XDG data directory,
// e.g. ~/.local/share/twcrawler/checkpoints/783214.checkpoint.json. It is
// rewritten atomically after every output record and removed when the
// frontier is exhausted.
package checkpoint
