// Book Reader - upload a PDF, listen to it page by page, and talk to a
// voice agent that knows the document.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/jronit/playai-book-reader/internal/config"
	"github.com/jronit/playai-book-reader/internal/log"
	"github.com/jronit/playai-book-reader/pkg/web"
)

func main() {
	cfg := parseFlags()

	log.Init(cfg.LogLevel)
	logger := log.Component("bookreader")

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration error", "error", err)
		logger.Error("set PLAYAI_API_KEY and PLAYAI_USER_ID, or provide a .env file")
		return
	}

	server := web.NewServer(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
		// Drain the listener's exit.
		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("server error on shutdown", "error", err)
			}
		case <-time.After(5 * time.Second):
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}
}

// parseFlags merges command line flags over environment configuration.
func parseFlags() config.Config {
	cfg := config.Load()

	addr := flag.String("addr", cfg.ListenAddr, "HTTP listen address")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	apiURL := flag.String("api-url", cfg.APIBaseURL, "Agent API base URL")
	ttsURL := flag.String("tts-url", cfg.TTSBaseURL, "Speech synthesis base URL")

	flag.Parse()

	cfg.ListenAddr = *addr
	cfg.LogLevel = *logLevel
	cfg.APIBaseURL = *apiURL
	cfg.TTSBaseURL = *ttsURL
	return cfg
}
