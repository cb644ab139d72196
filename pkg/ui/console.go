package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"twcrawler/pkg/metadata"
	"twcrawler/pkg/storage"
)

// Operator messages printed verbatim
const (
	PromptSeed       = "Enter the Twitter Id: "
	MsgInvalidSeed   = "Enter a valid id"
	MsgIOError       = "I/O Error"
	MsgSkipping      = "Skipping....."
	MsgRetrievedList = "Retrieved the list of followers..."
)

// ConsoleOptions tune a Console
type ConsoleOptions struct {
	// Quiet hides progress, info and the summary. Prompts and crawl
	// messages are always printed.
	Quiet bool

	// Color enables ANSI colors and the in-place progress line
	Color bool

	Notifier        *Notifier
	NotifyRateLimit bool
	NotifyComplete  bool
}

// Console prints operator-facing crawl messages
type Console struct {
	out     io.Writer
	opts    ConsoleOptions
	p       palette
	tracker *StatusTracker

	mu       sync.Mutex
	lineOpen bool
}

// NewConsole creates a Console writing to out
func NewConsole(out io.Writer, opts ConsoleOptions) *Console {
	return &Console{
		out:     out,
		opts:    opts,
		p:       newPalette(opts.Color),
		tracker: NewStatusTracker(),
	}
}

// Tracker returns the counters behind the progress line
func (c *Console) Tracker() *StatusTracker {
	return c.tracker
}

// println ends an open progress line before printing a message line
func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lineOpen {
		fmt.Fprintln(c.out)
		c.lineOpen = false
	}
	fmt.Fprintln(c.out, s)
}

// Prompt prints label without a newline
func (c *Console) Prompt(label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, label)
}

// InvalidSeed reports a seed that is not an integer
func (c *Console) InvalidSeed() {
	c.println(c.p.red(MsgInvalidSeed))
}

// IOError reports an output file failure
func (c *Console) IOError(err error) {
	c.println(c.p.red(fmt.Sprintf("%s: %v", MsgIOError, err)))
}

// Seeds echoes the initial frontier
func (c *Console) Seeds(ids []int64) {
	c.println(storage.FormatIDs(ids))
}

// Resumed reports a frontier restored from a checkpoint
func (c *Console) Resumed(frontier, expanded int) {
	if c.opts.Quiet {
		return
	}
	c.tracker.SetExpanded(expanded, 0)
	c.println(c.p.cyan(fmt.Sprintf("Resuming: %d ids already expanded, %d in frontier", expanded, frontier)))
}

// Skipping reports a follower enumeration cut short by a provider error
func (c *Console) Skipping(id int64, err error) {
	c.tracker.RecordSkip()
	c.println(c.p.yellow(fmt.Sprintf("%s %v", MsgSkipping, err)))
}

// ChunkSkipped reports a lookup chunk, starting at offset, dropped after a
// provider error
func (c *Console) ChunkSkipped(offset int, err error) {
	c.println(c.p.yellow(fmt.Sprintf("%s lookup chunk at %d: %v", MsgSkipping, offset, err)))
}

// RateLimited reports the start of a cooldown
func (c *Console) RateLimited(endpoint string, cooldown time.Duration, reset time.Time) {
	c.tracker.RecordRateLimit()

	msg := fmt.Sprintf("Rate limit reached on %s. Waiting %s...", endpoint, FormatDuration(cooldown))
	if !reset.IsZero() {
		msg += fmt.Sprintf(" (provider reset %s)", reset.Local().Format("15:04:05"))
	}
	c.println(c.p.yellow("⚠ " + msg))

	if c.opts.NotifyRateLimit {
		c.opts.Notifier.Notify("Rate limit reached", msg)
	}
}

// Expanded records one written output line and refreshes the progress line
func (c *Console) Expanded(id int64, survivors []int64, frontier int) {
	c.tracker.RecordExpansion(len(survivors), frontier)

	if c.opts.Quiet || !c.opts.Color {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r\033[K%s %s", c.p.cyan(fmt.Sprintf("%d", id)), c.tracker.Line())
	c.lineOpen = true
}

// Exhausted reports that the frontier emptied
func (c *Console) Exhausted() {
	c.println(c.p.green(MsgRetrievedList))

	if c.opts.NotifyComplete {
		c.opts.Notifier.Notify("Crawl complete", MsgRetrievedList)
	}
}

// Summary prints the end-of-run counters
func (c *Console) Summary(s *metadata.RunSummary) {
	if c.opts.Quiet || s == nil {
		return
	}

	c.println(fmt.Sprintf("%s %d ids expanded, %d survivors in %s (%s)",
		c.p.green("✓"), s.Expanded, s.SurvivorsTotal, FormatDuration(s.Elapsed()), s.Termination))
	if s.Reexpanded > 0 {
		c.println(fmt.Sprintf("  %s %d ids expanded more than once", c.p.dim("•"), s.Reexpanded))
	}
	if s.RateLimitWaits > 0 {
		c.println(fmt.Sprintf("  %s %d rate-limit cooldowns", c.p.dim("•"), s.RateLimitWaits))
	}
	if s.ProviderErrors > 0 {
		c.println(fmt.Sprintf("  %s %d provider errors", c.p.dim("•"), s.ProviderErrors))
	}
	c.println(fmt.Sprintf("  %s output: %s", c.p.dim("•"), s.OutputFile))
}

// Info prints a labelled value
func (c *Console) Info(label, value string) {
	if c.opts.Quiet {
		return
	}
	c.println(fmt.Sprintf("%s: %s", c.p.cyan(label), c.p.yellow(value)))
}

// Success prints a success line
func (c *Console) Success(msg string) {
	c.println(c.p.green(msg))
}

// Warning prints a warning line
func (c *Console) Warning(msg string) {
	c.println(c.p.yellow(msg))
}

// Error prints an error line, with err appended when non-nil
func (c *Console) Error(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	c.println(c.p.red(msg))
}
