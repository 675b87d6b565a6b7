// Command publish sends model output to a signcast server. With -lines it
// publishes every non-empty line read from stdin, which lets a recognizer
// pipe its output straight in.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pscheid92/signcast/internal/client"
	"github.com/pscheid92/signcast/internal/platform/correlation"
	"github.com/pscheid92/signcast/internal/platform/logging"
	"github.com/pscheid92/signcast/internal/platform/retry"
)

func main() {
	var (
		serverURL = flag.String("url", envOr("SIGNCAST_URL", "http://localhost:8080"), "Server base URL (or set SIGNCAST_URL env)")
		timeout   = flag.Duration("timeout", 2*time.Second, "Per-request timeout")
		attempts  = flag.Int("attempts", 3, "Attempts per text, including the first")
		lines     = flag.Bool("lines", false, "Publish each line from stdin instead of the arguments")
		verbose   = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <text...>\n       %s -lines < output.txt\n\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logLevel := "info"
	if *verbose {
		logLevel = "debug"
	}
	logging.InitLogger(logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := &publisher{
		api: client.NewAPIClient(*serverURL, &http.Client{Timeout: *timeout}),
		policy: retry.Policy{
			MaxAttempts:      *attempts,
			InitialBackoff:   250 * time.Millisecond,
			MaxBackoff:       2 * time.Second,
			ThrottledBackoff: time.Second,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				slog.Warn("Publish failed, retrying", "attempt", attempt, "backoff", wait, "error", err)
			},
		},
	}

	if *lines {
		if err := p.publishLines(ctx, os.Stdin); err != nil {
			slog.Error("Reading stdin failed", "error", err)
			os.Exit(1)
		}
		return
	}

	text := strings.Join(flag.Args(), " ")
	if strings.TrimSpace(text) == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !p.publish(ctx, text) {
		os.Exit(1)
	}
}

type publisher struct {
	api    *client.APIClient
	policy retry.Policy
}

// publish reports success; failures are logged, never fatal, so one bad
// line does not stop a stream.
func (p *publisher) publish(ctx context.Context, text string) bool {
	ctx = correlation.WithID(ctx, correlation.NewID())
	err := retry.DoVoid(ctx, p.policy, retry.ClassifyHTTP, func(ctx context.Context) error {
		return p.api.Publish(ctx, text)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Error sending output", "text", text, "error", err)
		return false
	}
	slog.InfoContext(ctx, "Successfully sent", "text", text)
	return true
}

func (p *publisher) publishLines(ctx context.Context, f *os.File) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			p.publish(ctx, line)
		}
	}
	return scanner.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
