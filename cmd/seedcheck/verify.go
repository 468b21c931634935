package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/farhan-ahmed1/seedcheck/internal/config"
	"github.com/farhan-ahmed1/seedcheck/internal/events"
	"github.com/farhan-ahmed1/seedcheck/internal/indicator"
	"github.com/farhan-ahmed1/seedcheck/internal/logger"
	"github.com/farhan-ahmed1/seedcheck/internal/mainloop"
	"github.com/farhan-ahmed1/seedcheck/internal/monitoring"
	"github.com/farhan-ahmed1/seedcheck/internal/runner"
	"github.com/farhan-ahmed1/seedcheck/internal/storage"
	"github.com/farhan-ahmed1/seedcheck/internal/task"
	"github.com/farhan-ahmed1/seedcheck/internal/wallet"
	"github.com/farhan-ahmed1/seedcheck/internal/worker"
)

// errNotVerified makes the process exit non-zero without repeating the output
var errNotVerified = errors.New("seed not verified")

type verifyOptions struct {
	*rootOptions
	wordList  string
	wordCount int
	timeout   time.Duration
	jsonOut   bool
	quiet     bool
	stats     bool
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	opts := &verifyOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "verify [words...]",
		Short: "Verify a recovery phrase",
		Long:  "Verify a recovery phrase given as arguments, or read from stdin when no arguments are given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.wordList, "wordlist", "", "word list file (one word per line)")
	cmd.Flags().IntVar(&opts.wordCount, "word-count", 0, "number of words in a phrase")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "verification timeout")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the outcome as JSON")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not show the progress indicator")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "report runner, pool and store statistics")

	return cmd
}

type verifyOutput struct {
	TaskID  string         `json:"task_id"`
	Success bool           `json:"success"`
	Result  string         `json:"result"`
	Kind    task.ErrorKind `json:"kind,omitempty"`
	Error   string         `json:"error,omitempty"`
	Stats   *runStats      `json:"stats,omitempty"`
}

// runStats is what the runner, pool and store report once the run is over
type runStats struct {
	Metrics monitoring.Snapshot    `json:"metrics"`
	Pool    map[string]interface{} `json:"pool"`
	Stored  map[task.State]int64   `json:"stored,omitempty"`
}

type verifyRun struct {
	result task.Result
	stats  runStats
}

func (o *verifyOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.load()
	if err != nil {
		return err
	}
	if o.wordList != "" {
		cfg.Wallet.WordListPath = o.wordList
	}
	if o.wordCount != 0 {
		cfg.Wallet.WordCount = o.wordCount
	}
	if o.timeout != 0 {
		cfg.Runner.VerifyTimeout = o.timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := newLogger(cmd, cfg)

	phrase, err := readPhrase(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	verifier, err := newMnemonic(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run, err := verifyOnLoop(ctx, cfg, log, verifier, o.indicators(cmd, cfg), phrase)
	if err != nil {
		return err
	}
	if o.stats && !o.jsonOut {
		printStats(cmd.ErrOrStderr(), run.stats)
	}
	return o.print(cmd.OutOrStdout(), run)
}

func (o *verifyOptions) indicators(cmd *cobra.Command, cfg *config.Config) indicator.Factory {
	if o.quiet || o.jsonOut {
		return indicator.NopFactory()
	}
	return indicator.ConsoleFactory(cmd.ErrOrStderr(), cfg.Indicator.Message)
}

func (o *verifyOptions) print(w io.Writer, run verifyRun) error {
	res := run.result
	if o.jsonOut {
		out := verifyOutput{
			TaskID:  res.TaskID,
			Success: res.OK(),
			Result:  res.Output,
			Kind:    res.Kind,
			Error:   res.Error,
		}
		if o.stats {
			out.Stats = &run.stats
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else if res.OK() {
		fmt.Fprintln(w, res.Output)
	} else {
		fmt.Fprintf(w, "verification failed (%s): %s\n", res.Kind, res.Error)
	}

	if !res.OK() {
		return errNotVerified
	}
	return nil
}

func printStats(w io.Writer, st runStats) {
	m := st.Metrics
	fmt.Fprintf(w, "runs: submitted=%d completed=%d succeeded=%d failed=%d rejected=%d\n",
		m.Submitted, m.Completed, m.Succeeded, m.Failed, m.Rejected)
	fmt.Fprintf(w, "verify time: avg=%s max=%s\n", m.AvgVerifyTime, m.MaxVerifyTime)
	fmt.Fprintf(w, "pool: workers=%v processed=%v panicked=%v pending=%v\n",
		st.Pool["total_workers"], st.Pool["jobs_processed"], st.Pool["jobs_panicked"], st.Pool["pending_jobs"])
	for _, state := range []task.State{task.StateCreated, task.StateRunning, task.StateCompleted} {
		if n, ok := st.Stored[state]; ok {
			fmt.Fprintf(w, "stored %s: %d\n", state, n)
		}
	}
}

// verifyOnLoop runs the owner loop on the calling goroutine until the single
// verification is delivered
func verifyOnLoop(ctx context.Context, cfg *config.Config, log *logger.Logger, verifier wallet.Verifier, indicators indicator.Factory, phrase string) (verifyRun, error) {
	loop := mainloop.New(0)

	pool := worker.NewPool(worker.PoolConfig{
		Workers:         cfg.Runner.Workers,
		QueueSize:       cfg.Runner.QueueSize,
		ShutdownTimeout: cfg.Runner.ShutdownTimeout,
	}, log)
	if err := pool.Start(); err != nil {
		return verifyRun{}, err
	}
	poolStopped := false
	stopPool := func() {
		if poolStopped {
			return
		}
		poolStopped = true
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Runner.ShutdownTimeout)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.Warn("pool shutdown incomplete", logger.Fields{"error": err})
		}
	}
	defer stopPool()

	opts := runner.Options{
		Verifier:      verifier,
		Scheduler:     pool,
		Loop:          loop,
		Indicators:    indicators,
		VerifyTimeout: cfg.Runner.VerifyTimeout,
		Logger:        log,
	}

	var store *storage.RedisStorage
	if cfg.Redis.Enabled {
		var err error
		store, err = storage.DialRedis(ctx, cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
		if err != nil {
			log.Warn("outcome store unavailable", logger.Fields{"error": err})
			store = nil
		} else {
			defer store.Close()
			opts.Store = store
		}
	}
	if cfg.NATS.Enabled {
		pub, err := events.DialNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("event publisher unavailable", logger.Fields{"error": err})
		} else {
			defer pub.Close()
			opts.Publisher = pub
		}
	}

	r, err := runner.New(opts)
	if err != nil {
		return verifyRun{}, err
	}

	results := make(chan task.Result, 1)
	submitErr := make(chan error, 1)
	if err := loop.Post(func() {
		_, err := r.Submit(ctx, phrase, func(res task.Result) {
			results <- res
			loop.Close()
		})
		if err != nil {
			submitErr <- err
			loop.Close()
		}
	}); err != nil {
		return verifyRun{}, err
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return verifyRun{}, err
	}

	// On interrupt the verifier sees a cancelled context and delivery falls
	// back to the worker; wait for it
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Runner.ShutdownTimeout)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		log.Warn("runner shutdown incomplete", logger.Fields{"error": err})
	}

	select {
	case err := <-submitErr:
		return verifyRun{}, err
	case res := <-results:
		// Worker counters settle only once the pool has drained
		stopPool()
		return verifyRun{result: res, stats: collectStats(shutdownCtx, r, pool, store, log)}, nil
	default:
		return verifyRun{}, fmt.Errorf("verification did not complete")
	}
}

func readPhrase(in io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read phrase: %w", err)
	}

	phrase := strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
	if phrase == "" {
		return "", fmt.Errorf("no phrase given")
	}
	return phrase, nil
}

func newMnemonic(cfg *config.Config) (*wallet.Mnemonic, error) {
	if cfg.Wallet.WordListPath == "" {
		return nil, fmt.Errorf("no word list configured (use --wordlist or SEEDCHECK_WORDLIST)")
	}
	words, err := wallet.LoadWordList(cfg.Wallet.WordListPath)
	if err != nil {
		return nil, err
	}
	return wallet.NewMnemonic(words, cfg.Wallet.WordCount)
}

func collectStats(ctx context.Context, r *runner.Runner, pool *worker.Pool, store *storage.RedisStorage, log *logger.Logger) runStats {
	st := runStats{
		Metrics: r.Metrics().Snapshot(),
		Pool:    pool.GetStats(),
	}
	if store == nil {
		return st
	}

	st.Stored = make(map[task.State]int64)
	for _, state := range []task.State{task.StateCreated, task.StateRunning, task.StateCompleted} {
		n, err := store.CountByState(ctx, state)
		if err != nil {
			log.Warn("failed to count stored tasks", logger.Fields{"state": state, "error": err})
			continue
		}
		st.Stored[state] = n
	}
	return st
}
