package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/bugs"
	"github.com/bugdex/bugdex/internal/config"
	"github.com/bugdex/bugdex/internal/fetch"
	"github.com/bugdex/bugdex/internal/progress"
	"github.com/bugdex/bugdex/internal/progress/sinks"
	"github.com/bugdex/bugdex/internal/sources"
	"github.com/bugdex/bugdex/internal/worker"
)

// newGrabCmd creates the 'grab' subcommand, which processes one URL list file.
func newGrabCmd(rt *runtime) *cobra.Command {
	var (
		workers       int
		timeoutSec    int
		retries       int
		backoff       float64
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "grab <urls.txt>",
		Short: "Fetch every URL in the list and write a JSON index next to it",
		Long: `Reads a newline-delimited .txt file of bug and issue URLs, fetches each
URL concurrently, and writes the normalized records to a sibling .json
file. Lines starting with # and blank lines are ignored; duplicates are
processed once. The lead name is inferred from the input filename.`,
		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rt.cfg
			if cmd.Flags().Changed("workers") {
				cfg.Batch.Workers = workers
			}
			if cmd.Flags().Changed("timeout") {
				cfg.HTTP.TimeoutSeconds = timeoutSec
			}
			if cmd.Flags().Changed("retries") {
				cfg.HTTP.MaxRetries = retries
			}
			if cmd.Flags().Changed("backoff") {
				cfg.HTTP.BackoffFactor = backoff
			}
			if cmd.Flags().Changed("metrics-listen") {
				cfg.Metrics.Listen = metricsListen
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runGrab(cmd, rt.logger, cfg, args[0])
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 16, "max concurrent URL fetches")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 12, "per-request timeout in seconds")
	cmd.Flags().IntVar(&retries, "retries", 3, "HTTP retries per request")
	cmd.Flags().Float64Var(&backoff, "backoff", 0.6, "retry backoff factor in seconds")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "expose Prometheus metrics on this address while running")

	return cmd
}

func runGrab(cmd *cobra.Command, logger *zap.Logger, cfg config.Config, inputPath string) error {
	if !strings.HasSuffix(inputPath, ".txt") {
		return errors.New("input must be a .txt file")
	}

	lead := leadFromFilename(inputPath)
	urls, err := readURLList(inputPath)
	if err != nil {
		return fmt.Errorf("read url list: %w", err)
	}
	if len(urls) == 0 {
		return errors.New("no URLs found in input file")
	}

	client, err := fetch.NewCollyClient(fetch.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		RequestTimeout: cfg.RequestTimeout(),
		Concurrency:    cfg.Batch.Workers,
	}, logger)
	if err != nil {
		return fmt.Errorf("init fetch client: %w", err)
	}
	getter := fetch.NewRetryingGetter(
		client,
		fetch.NewExponentialRetryPolicy(cfg.HTTP.MaxRetries+1, cfg.HTTP.BackoffFactor),
		logger,
	)

	hub, metricsShutdown, err := buildProgressHub(logger, cfg.Metrics.Listen)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := hub.Close(cmd.Context()); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
		metricsShutdown()
	}()

	router := sources.NewRouter(getter, sources.Options{
		GitHubAPIBase: cfg.GitHub.APIBase,
		GitHubRawBase: cfg.GitHub.RawBase,
		GitHubToken:   cfg.GitHub.Token,
		ForumTag:      cfg.Forum.Tag,
	}, logger)
	pool := worker.New(router, hub, logger, worker.Config{Workers: cfg.Batch.Workers})

	res := pool.Run(cmd.Context(), urls, lead)
	for _, warn := range res.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "[WARN] %s: %s\n", warn.URL, warn.Reason)
	}

	outPath, err := writeJSONForInput(inputPath, res.Records)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries → %s  (warnings: %d, %.2fs)\n",
		len(res.Records), outPath, len(res.Warnings), res.Elapsed.Seconds())
	return nil
}

// buildProgressHub wires the log sink and, when listen is set, a Prometheus
// sink served over HTTP for scrape-while-running setups.
func buildProgressHub(logger *zap.Logger, listen string) (*progress.Hub, func(), error) {
	hubSinks := []progress.Sink{sinks.NewLogSink(logger)}
	shutdown := func() {}

	if listen != "" {
		reg := prometheus.NewRegistry()
		promSink, err := sinks.NewPrometheusSink(reg)
		if err != nil {
			return nil, nil, fmt.Errorf("init prometheus sink: %w", err)
		}
		hubSinks = append(hubSinks, promSink)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		shutdown = func() { _ = srv.Close() }
	}

	hub := progress.NewHub(progress.Config{Logger: logger}, hubSinks...)
	return hub, shutdown, nil
}

var camelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

// leadFromFilename infers the lead name from the input basename. It supports
// CamelCase, spaces, and underscores: JaneDoe.txt and jane_doe.txt both
// become "Jane Doe".
func leadFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	name = strings.TrimSpace(camelBoundary.ReplaceAllString(name, "$1 $2"))

	words := strings.Fields(name)
	for i, w := range words {
		r := []rune(w)
		words[i] = string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
	}
	return strings.Join(words, " ")
}

// readURLList loads the input file, skipping blank lines and # comments and
// dropping exact duplicates while preserving first-seen order.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeJSONForInput writes the records next to the input file with a .json
// extension, indented and without HTML escaping. An empty run still produces
// a JSON array.
func writeJSONForInput(inputPath string, records []bugs.Record) (string, error) {
	if records == nil {
		records = []bugs.Record{}
	}
	outPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".json"

	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return "", err
	}
	return outPath, nil
}
