package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"twcrawler/pkg/auth"
	"twcrawler/pkg/checkpoint"
	"twcrawler/pkg/config"
	"twcrawler/pkg/crawler"
	errs "twcrawler/pkg/errors"
	"twcrawler/pkg/logger"
	"twcrawler/pkg/metrics"
	"twcrawler/pkg/ratelimit"
	"twcrawler/pkg/retry"
	"twcrawler/pkg/storage"
	"twcrawler/pkg/twitter"
	"twcrawler/pkg/ui"
)

// Process exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

var (
	// Crawl command flags
	outputFile    string
	accountName   string
	resumeCrawl   bool
	maxExpansions int
	metricsAddr   string
	cooldown      time.Duration
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [seed-id]",
	Short: "Crawl the follower graph from a seed account id",
	Long: `Crawl the follower graph breadth first from a seed account id.

When no seed is given on the command line it is read from standard input.
Every expanded id appends one line to the output file:

  <id> [<survivor>, <survivor>, ...]

where the survivors are its followers with fewer than 400 followers. Survivors
are queued and expanded in turn until the queue is empty.

Credentials come from the environment (TWCRAWLER_CONSUMER_KEY,
TWCRAWLER_CONSUMER_SECRET, TWCRAWLER_ACCESS_TOKEN, TWCRAWLER_ACCESS_SECRET)
or from a profile stored with 'twcrawler auth login'.`,
	Example: `  # Prompt for the seed id
  twcrawler crawl

  # Crawl from a seed into a specific file
  twcrawler crawl 783214 --output graph.txt

  # Stop after 1000 records and expose metrics
  twcrawler crawl 783214 --max-expansions 1000 --metrics-addr :9090

  # Continue an interrupted crawl
  twcrawler crawl 783214 --resume`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCrawl(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	// The root command crawls too, so it carries the same flags
	for _, c := range []*cobra.Command{crawlCmd, rootCmd} {
		c.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default output2.txt)")
		c.Flags().StringVarP(&accountName, "account", "a", "", "use a specific stored credential profile")
		c.Flags().BoolVar(&resumeCrawl, "resume", false, "resume from the seed's checkpoint")
		c.Flags().IntVar(&maxExpansions, "max-expansions", 0, "stop after this many records (0 means no limit)")
		c.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
		c.Flags().DurationVar(&cooldown, "cooldown", 0, "wait after a rate limit (default 15m)")
	}

	// Crawl is the default when no subcommand is given
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if len(args) > 0 && isKnownCommand(args[0]) {
			_ = cmd.Help()
			return
		}
		runCrawl(cmd, args)
	}
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}

func runCrawl(cmd *cobra.Command, args []string) {
	flags := globalFlags(cmd)
	if outputFile != "" {
		flags["output"] = outputFile
	}
	if accountName != "" {
		flags["account"] = accountName
	}
	if cooldown > 0 {
		flags["cooldown"] = cooldown
	}
	if maxExpansions > 0 {
		flags["max-expansions"] = maxExpansions
	}
	if metricsAddr != "" {
		flags["metrics-addr"] = metricsAddr
	}

	run := &crawlRun{
		args:        args,
		configPath:  configFile,
		flags:       flags,
		resume:      resumeCrawl,
		quiet:       quiet,
		color:       !noColor && ui.IsTerminal(os.Stdout),
		in:          os.Stdin,
		out:         os.Stdout,
		credentials: auth.NewManager,
		checkpoints: checkpoint.NewManager,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run.execute(ctx)
	stop()
	if code != exitOK {
		os.Exit(code)
	}
}

// crawlRun carries everything one crawl invocation needs
type crawlRun struct {
	args       []string
	configPath string
	flags      map[string]interface{}
	resume     bool
	quiet      bool
	color      bool

	in  io.Reader
	out io.Writer

	credentials func() (*auth.Manager, error)
	checkpoints func(seedID int64) (*checkpoint.Manager, error)

	// sleep replaces the cooldown wait in tests
	sleep retry.SleepFunc
}

// execute runs the crawl and returns the process exit code
func (r *crawlRun) execute(ctx context.Context) int {
	cfg, err := config.Load(r.configPath, r.flags)
	if err != nil {
		ui.NewConsole(r.out, ui.ConsoleOptions{Color: r.color}).Error("Failed to load configuration", err)
		return exitFailure
	}

	var notifier *ui.Notifier
	if cfg.Notifications.Enabled {
		notifier = ui.NewNotifier()
	}
	console := ui.NewConsole(r.out, ui.ConsoleOptions{
		Quiet:           r.quiet,
		Color:           r.color,
		Notifier:        notifier,
		NotifyRateLimit: cfg.Notifications.OnRateLimit,
		NotifyComplete:  cfg.Notifications.OnComplete,
	})

	seed, err := r.readSeed(console)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidSeed) {
			console.InvalidSeed()
		} else {
			console.IOError(err)
		}
		return exitFailure
	}
	console.Seeds([]int64{seed})

	if err := logger.Initialize(&cfg.Logging); err != nil {
		console.Error("Failed to initialize logger", err)
		return exitFailure
	}
	log := logger.WithField("seed_id", seed)

	manager, err := r.credentials()
	if err != nil {
		console.Error("Failed to initialize credential manager", err)
		return exitFailure
	}
	creds, err := manager.Resolve(cfg.Twitter.Account)
	if err != nil {
		log.WithError(err).Error("No credentials found")
		console.Error("No Twitter credentials found", err)
		console.Info("Hint", "run 'twcrawler auth login' or set "+auth.EnvConsumerKey+" and friends")
		return exitFailure
	}
	log.WithField("profile", creds.Name).Info("Using credentials")

	followerLimiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.FollowerRequests, cfg.RateLimit.Window)
	if err != nil {
		console.Error("Invalid rate limit settings", err)
		return exitFailure
	}
	lookupLimiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.LookupRequests, cfg.RateLimit.Window)
	if err != nil {
		console.Error("Invalid rate limit settings", err)
		return exitFailure
	}

	rec := metrics.New()
	client, err := twitter.NewClient(creds.OAuth(), twitter.Options{
		BaseURL:         cfg.Twitter.BaseURL,
		Timeout:         cfg.Twitter.Timeout,
		UserAgent:       cfg.Twitter.UserAgent,
		Logger:          logger.GetLogger(),
		Metrics:         rec,
		FollowerLimiter: followerLimiter,
		LookupLimiter:   lookupLimiter,
	})
	if err != nil {
		console.Error("Failed to create Twitter client", err)
		return exitFailure
	}

	checkpoints, cp, err := r.loadCheckpoint(cfg, seed, console)
	if err != nil {
		console.Error("Failed to load checkpoint", err)
		return exitFailure
	}

	out, err := storage.OpenOutputLog(cfg.Crawl.OutputFile)
	if err != nil {
		console.IOError(err)
		return exitFailure
	}
	defer out.Close()

	c := crawler.New(client, out, crawler.Config{
		Cooldown:      cfg.Crawl.Cooldown,
		MaxExpansions: cfg.Crawl.MaxExpansions,
		OutputFile:    cfg.Crawl.OutputFile,
		Sleep:         r.sleep,
		Reporter:      console,
		Metrics:       rec,
		Checkpoints:   checkpoints,
	})

	logger.LogComponentStart("crawl", map[string]interface{}{
		"seed_id":        seed,
		"output":         cfg.Crawl.OutputFile,
		"cooldown":       cfg.Crawl.Cooldown,
		"max_expansions": cfg.Crawl.MaxExpansions,
		"resume":         cp != nil,
	})

	g, gctx := errgroup.WithContext(ctx)
	crawlCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		g.Go(func() error {
			return rec.Serve(crawlCtx, addr)
		})
	}

	var (
		res      *crawler.Result
		crawlErr error
	)
	g.Go(func() error {
		defer stopServing()
		if cp != nil {
			console.Resumed(len(cp.Frontier), cp.Expanded)
			res, crawlErr = c.Resume(crawlCtx, cp)
		} else {
			res, crawlErr = c.Run(crawlCtx, seed)
		}
		return nil
	})
	serveErr := g.Wait()

	if res != nil {
		summary := res.Summary(cfg.Crawl.OutputFile, crawlErr)
		if cfg.Crawl.WriteSummary {
			if err := summary.Save(cfg.Crawl.OutputFile); err != nil {
				log.WithError(err).Warn("Failed to write run summary")
			}
		}
		console.Summary(summary)
		logger.LogComponentStop("crawl", summary.Termination)
	}

	switch {
	case serveErr != nil:
		console.Error("Metrics listener failed", serveErr)
		return exitFailure
	case crawlErr == nil:
		return exitOK
	case errors.Is(crawlErr, errs.ErrOutputUnavailable):
		console.IOError(crawlErr)
		return exitFailure
	case errors.Is(crawlErr, context.Canceled), errors.Is(crawlErr, context.DeadlineExceeded):
		if checkpoints != nil {
			console.Warning(fmt.Sprintf("Crawl interrupted. Continue with: twcrawler crawl %d --resume", seed))
		} else {
			console.Warning("Crawl interrupted")
		}
		return exitInterrupted
	default:
		console.Error("Crawl failed", crawlErr)
		return exitFailure
	}
}

// readSeed takes the seed from the arguments, or prompts for one line on in
func (r *crawlRun) readSeed(console *ui.Console) (int64, error) {
	if len(r.args) > 0 {
		return parseSeed(r.args[0])
	}

	console.Prompt(ui.PromptSeed)
	line, err := bufio.NewReader(r.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	return parseSeed(line)
}

// loadCheckpoint returns the checkpoint manager for seed, nil when
// checkpointing is off, and the checkpoint to resume from, if any
func (r *crawlRun) loadCheckpoint(cfg *config.Config, seed int64, console *ui.Console) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	if !cfg.Crawl.Checkpoint && !r.resume {
		return nil, nil, nil
	}

	manager, err := r.checkpoints(seed)
	if err != nil {
		logger.WithError(err).Warn("Checkpointing unavailable")
		if r.resume {
			return nil, nil, err
		}
		return nil, nil, nil
	}
	if !r.resume {
		return manager, nil, nil
	}

	cp, err := manager.Load()
	if err != nil {
		return nil, nil, err
	}
	if cp == nil {
		console.Warning("No checkpoint found for this seed, starting a new crawl")
		return manager, nil, nil
	}
	if cp.OutputFile != "" && cp.OutputFile != cfg.Crawl.OutputFile {
		console.Warning(fmt.Sprintf("Checkpoint was written for %s, appending to %s", cp.OutputFile, cfg.Crawl.OutputFile))
	}
	return manager, cp, nil
}

// parseSeed accepts one decimal account id, ignoring surrounding whitespace
func parseSeed(s string) (int64, error) {
	s = strings.TrimSpace(s)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidSeed, s)
	}
	return id, nil
}
