package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/config"
	"github.com/atendesk/atendesk/internal/observability"
	"github.com/atendesk/atendesk/internal/session"
)

// The console is a headless agent session: it signs in, keeps the
// conversation list and badge counts fresh by polling, and logs what an
// interactive frontend would render.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := session.NewClient(cfg.Console)

	email := os.Getenv("CONSOLE_EMAIL")
	password := os.Getenv("CONSOLE_PASSWORD")
	if email == "" || password == "" {
		logger.Fatal("CONSOLE_EMAIL and CONSOLE_PASSWORD are required")
	}
	if err := client.Login(ctx, email, password); err != nil {
		logger.Fatal("login failed", zap.Error(err))
	}

	store := session.NewStore(client, logger)
	store.OnError(func(err error) {
		logger.Warn("background refresh failed", zap.Error(err))
	})

	engine := session.NewEngine(client, store)
	composer := session.NewComposer(engine, store)

	poller := session.NewPoller(store, cfg.Console.PollInterval(), logger)
	poller.Start(ctx)
	defer poller.Stop()

	store.LoadSummaries(ctx, session.FilterWaiting)
	counts := store.LoadCounts(ctx)
	logger.Info("session started",
		zap.Int("waiting", counts.Waiting),
		zap.Int("in_progress", counts.InProgress),
		zap.Int("closed", counts.Closed),
	)

	if watch := os.Getenv("CONSOLE_WATCH_CONVERSATION"); watch != "" {
		if err := store.SelectActive(ctx, watch); err != nil {
			logger.Warn("select failed", zap.String("conversation_id", watch), zap.Error(err))
		} else if active := store.Active(); active != nil {
			logger.Info("watching conversation",
				zap.String("protocol", active.Protocol),
				zap.String("contact", active.ContactName),
				zap.String("status", string(active.Status)),
				zap.Int("thread_length", len(store.ActiveThread())),
			)
			if text := os.Getenv("CONSOLE_SEND_TEXT"); text != "" {
				composer.SetDraft(text)
				if err := composer.Send(ctx); err != nil {
					logger.Warn("send failed", zap.Error(err))
				} else {
					logger.Info("message sent", zap.Int("thread_length", len(store.ActiveThread())))
				}
			}
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("session ended", zap.String("signal", sig.String()))
}
