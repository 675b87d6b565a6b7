// Command viewer is a headless viewing session: it follows the stream,
// translates and synthesizes each text and writes the audio to MP3 files.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/pscheid92/signcast/internal/client"
	"github.com/pscheid92/signcast/internal/domain"
	"github.com/pscheid92/signcast/internal/pipeline"
	"github.com/pscheid92/signcast/internal/platform/logging"
)

func main() {
	var (
		serverURL = flag.String("url", envOr("SIGNCAST_URL", "http://localhost:8080"), "Server base URL (or set SIGNCAST_URL env)")
		language  = flag.String("lang", string(pipeline.DefaultLanguage), "Target language (en-US, hi-IN, ta-IN, ml-IN, te-IN, kn-IN)")
		gender    = flag.String("gender", string(pipeline.DefaultGender), "Voice gender (FEMALE, MALE, NEUTRAL)")
		outDir    = flag.String("out", "speech", "Directory for synthesized MP3 files")
		gated     = flag.Bool("gated", false, "Hold audio until SIGUSR1 allows playback, like a browser autoplay policy")
		logLevel  = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logging.InitLogger(*logLevel, "text")
	logger := logging.WithComponent("viewer")

	lang, ok := domain.LookupLanguage(*language)
	if !ok {
		logger.Error("Unsupported language", "lang", *language)
		os.Exit(2)
	}

	filePlayer, err := pipeline.NewFilePlayer(*outDir)
	if err != nil {
		logger.Error("Failed to prepare output directory", "error", err)
		os.Exit(1)
	}
	var player pipeline.Player = filePlayer
	if *gated {
		player = pipeline.NewGatedPlayer(filePlayer)
	}

	api := client.NewAPIClient(*serverURL, nil)
	p := pipeline.New(api, api, player, pipeline.Options{
		Language: lang.Code,
		Gender:   domain.NormalizeGender(*gender),
		OnChange: logTransitions(logger),
	})
	defer p.Close()

	listener := client.NewListener(*serverURL, p, client.ListenerOptions{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(ctx) })
	g.Go(func() error {
		// SIGUSR1 stands in for the user's click on "play".
		replay := make(chan os.Signal, 1)
		signal.Notify(replay, syscall.SIGUSR1)
		defer signal.Stop(replay)

		for {
			select {
			case <-ctx.Done():
				logger.Info("Viewer stopping")
				return nil
			case <-replay:
				if err := p.PlayPending(ctx); err != nil {
					logger.Warn("Replay failed", "error", err)
				}
			}
		}
	})

	logger.Info("Viewer started", "url", *serverURL, "lang", lang.Code, "voice", *gender, "out", *outDir)
	if err := g.Wait(); err != nil {
		logger.Error("Viewer failed", "error", err)
		os.Exit(1)
	}
}

// logTransitions reports state changes, errors and held-back audio.
func logTransitions(logger *slog.Logger) func(pipeline.Snapshot) {
	var (
		mu   sync.Mutex
		last pipeline.State
	)
	return func(s pipeline.Snapshot) {
		mu.Lock()
		changed := s.State != last
		last = s.State
		mu.Unlock()
		if !changed {
			return
		}

		switch s.State {
		case pipeline.StateError:
			logger.Warn("Pipeline error", "error", s.Error)
		case pipeline.StateAwaitingPlayPermission:
			logger.Info("Audio held until playback is allowed", "bytes", len(s.PendingAudio))
		case pipeline.StatePlaying:
			logger.Info("Playing", "input", s.InputText, "translated", s.TranslatedText)
		default:
			logger.Debug("Pipeline state", "state", s.State)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
