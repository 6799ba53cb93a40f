package services

import (
	"context"
	"time"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

const perOwnerScanTimeout = 2 * time.Minute

// ScanWorker periodically runs the suggestion analysis for every owner, so
// the briefing is warm before anyone opens the app. Per-owner failures are
// logged and skipped; the loop itself never stops until the context does.
type ScanWorker struct {
	log         *logger.Logger
	users       repos.UserRepo
	suggestions SuggestionService
	interval    time.Duration
}

func NewScanWorker(log *logger.Logger, userRepo repos.UserRepo, suggestionService SuggestionService, interval time.Duration) *ScanWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ScanWorker{
		log:         log.With("service", "ScanWorker"),
		users:       userRepo,
		suggestions: suggestionService,
		interval:    interval,
	}
}

func (w *ScanWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ScanWorker) run(ctx context.Context) {
	w.log.Info("scan worker started", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scanAll(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info("scan worker stopped")
			return
		case <-ticker.C:
			w.scanAll(ctx)
		}
	}
}

func (w *ScanWorker) scanAll(ctx context.Context) {
	users, err := w.users.List(ctx, nil)
	if err != nil {
		w.log.Warn("could not list users for scan", "error", err)
		return
	}
	started := time.Now()
	generated := 0
	for _, u := range users {
		if ctx.Err() != nil {
			return
		}
		ownerCtx, cancel := context.WithTimeout(ctx, perOwnerScanTimeout)
		res, err := w.suggestions.Generate(ownerCtx, u.ID)
		cancel()
		if err != nil {
			w.log.Warn("scan failed for owner", "user_id", u.ID, "error", err)
			continue
		}
		generated += res.NewGenerated
	}
	w.log.Info("scan pass finished", "owners", len(users), "new_suggestions", generated, "took", time.Since(started).String())
}
