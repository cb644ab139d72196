package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"twcrawler/pkg/metadata"
)

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestConsoleMessages(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{})

	c.Prompt(PromptSeed)
	c.Seeds([]int64{783214})
	c.Skipping(783214, errors.New("Not authorized."))
	c.Exhausted()
	c.InvalidSeed()
	c.IOError(errors.New("permission denied"))

	assert.Equal(t, "Enter the Twitter Id: [783214]\n"+
		"Skipping..... Not authorized.\n"+
		"Retrieved the list of followers...\n"+
		"Enter a valid id\n"+
		"I/O Error: permission denied\n", buf.String())
	assert.Equal(t, 1, c.Tracker().Skipped)
}

func TestConsoleQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{Quiet: true, Color: true})

	c.Info("Output", "output2.txt")
	c.Expanded(1, []int64{2, 3}, 2)
	c.Summary(&metadata.RunSummary{Expanded: 1})
	assert.Empty(t, buf.String())

	c.Skipping(1, errors.New("boom"))
	assert.Contains(t, buf.String(), MsgSkipping)
	assert.Equal(t, 1, c.Tracker().Expanded)
	assert.Equal(t, 2, c.Tracker().Survivors)
}

func TestConsoleProgressLineIsClosed(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{Color: true})

	c.Expanded(42, []int64{1}, 1)
	c.Exhausted()

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\r\033[K"))
	assert.Contains(t, out, "frontier 1")
	assert.Contains(t, out, "\n"+Green(MsgRetrievedList)+"\n")
}

func TestConsoleNotifications(t *testing.T) {
	sender := &recordingSender{}
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{
		Notifier:        NewNotifierWithSender(sender),
		NotifyRateLimit: true,
		NotifyComplete:  false,
	})

	c.RateLimited("followers/ids", 15*time.Minute, time.Time{})
	c.Exhausted()

	assert.Equal(t, []string{"Rate limit reached"}, sender.titles)
	assert.Contains(t, buf.String(), "Waiting 15m0s")
	assert.Equal(t, 1, c.Tracker().RateLimits)
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() { n.Notify("t", "m") })
	assert.NotPanics(t, func() { NewNotifierWithSender(nil).Notify("t", "m") })
}

func TestConsoleSummary(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, ConsoleOptions{})

	start := time.Now().Add(-2 * time.Minute)
	c.Summary(&metadata.RunSummary{
		OutputFile:     "output2.txt",
		StartedAt:      start,
		FinishedAt:     start.Add(90 * time.Second),
		Expanded:       3,
		SurvivorsTotal: 2,
		Reexpanded:     1,
		Termination:    metadata.TerminationFrontierExhausted,
	})

	out := buf.String()
	assert.Contains(t, out, "3 ids expanded, 2 survivors in 1m30s (frontier_exhausted)")
	assert.Contains(t, out, "1 ids expanded more than once")
	assert.NotContains(t, out, "cooldowns")
	assert.Contains(t, out, "output: output2.txt")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "15m0s", FormatDuration(15*time.Minute))
	assert.Equal(t, "2h5m", FormatDuration(2*time.Hour+5*time.Minute))
}

func TestStatusTrackerLine(t *testing.T) {
	st := NewStatusTracker()
	st.RecordExpansion(3, 5)
	st.RecordSkip()

	line := st.Line()
	assert.Contains(t, line, "expanded 1")
	assert.Contains(t, line, "survivors 3")
	assert.Contains(t, line, "frontier 5")
	assert.Contains(t, line, "1 skipped")
	assert.NotContains(t, line, "cooldowns")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
