// Package crawler walks the Twitter follower graph breadth first.
//
// A Crawler holds a FIFO frontier of account ids seeded with one id. Each
// step pops the head, lists every follower through the cursored
// followers/ids endpoint, looks the followers up 100 at a time and keeps
// those with fewer than PopularityThreshold followers of their own. The
// survivors are written as one record and appended to the frontier.
//
// Architecture:
//
//   - FollowerPages iterates follower id pages for one user and reports the
//     end of data with ErrNoMorePages
//   - ExpandOne drains the iterator, waiting out rate limits and cutting the
//     list short on any other provider error
//   - FilterByPopularity chunks the ids for users/lookup and applies the
//     threshold
//   - Run and Resume drive the loop, write records, update metrics and
//     checkpoints, and report progress to a Reporter
//
// Rate limits never fail a crawl. The crawler sleeps for the configured
// cooldown (15 minutes by default) and retries the same request, as often as
// needed. Only cancelling the context stops a sleeping crawler.
//
// Usage:
//
//	out, err := storage.OpenOutputLog("output2.txt")
//	if err != nil {
//	    return err
//	}
//	defer out.Close()
//
//	c := crawler.New(client, out, crawler.Config{Reporter: console})
//	res, err := c.Run(ctx, 783214)
//
// Ids are not deduplicated. An id reached through two parents is expanded
// twice and produces two records; Result.Reexpanded counts such repeats.
package crawler
