package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/fieldcrypt"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/services/triggers"
)

type AnalysisSummary struct {
	Urgent    int `json:"urgent"`
	Important int `json:"important"`
	Useful    int `json:"useful"`
	Total     int `json:"total"`
}

type AnalysisResult struct {
	Suggestions  []*domain.Suggestion `json:"suggestions"`
	NewGenerated int                  `json:"new_generated"`
	Summary      AnalysisSummary      `json:"summary"`
	AnalyzedAt   time.Time            `json:"analyzed_at"`
}

// BriefingCache is an optional read-side cache for rendered briefings. A nil
// cache disables caching; the engine never depends on it.
type BriefingCache interface {
	Get(ctx context.Context, userID uuid.UUID) (string, bool)
	Set(ctx context.Context, userID uuid.UUID, text string)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type SuggestionService interface {
	// Generate runs all triggers for the owner, persists new suggestions
	// idempotently and returns the ranked active set. Trigger and persist
	// failures degrade to fewer suggestions, never to an error; only a
	// failed suggestion-store read aborts the run.
	Generate(ctx context.Context, userID uuid.UUID) (*AnalysisResult, error)

	ListActive(ctx context.Context, userID uuid.UUID) ([]*domain.Suggestion, error)
	GetUrgent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Suggestion, error)
	Briefing(ctx context.Context, userID uuid.UUID) (string, error)

	Complete(ctx context.Context, id uuid.UUID) (bool, error)
	Postpone(ctx context.Context, id uuid.UUID) (bool, error)
	Ignore(ctx context.Context, id uuid.UUID) (bool, error)
}

type suggestionService struct {
	db          *gorm.DB
	log         *logger.Logger
	suggestions repos.SuggestionRepo
	deps        triggers.Deps
	cipher      fieldcrypt.Cipher
	cfg         triggers.Config
	cache       BriefingCache
}

func NewSuggestionService(
	db *gorm.DB,
	log *logger.Logger,
	suggestionRepo repos.SuggestionRepo,
	visitRepo repos.VisitRepo,
	noteRepo repos.NoteRepo,
	clientRepo repos.ClientRepo,
	cipher fieldcrypt.Cipher,
	cfg triggers.Config,
	cache BriefingCache,
) SuggestionService {
	serviceLog := log.With("service", "SuggestionService")
	return &suggestionService{
		db:          db,
		log:         serviceLog,
		suggestions: suggestionRepo,
		deps: triggers.Deps{
			Visits:  visitRepo,
			Notes:   noteRepo,
			Clients: clientRepo,
			Log:     serviceLog,
		},
		cipher: cipher,
		cfg:    cfg,
		cache:  cache,
	}
}

func (s *suggestionService) Generate(ctx context.Context, userID uuid.UUID) (*AnalysisResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("generate: missing user id")
	}
	log := s.log.With("user_id", userID)

	if s.cipher != nil {
		if err := s.cipher.EnsureScopeReady(ctx, userID); err != nil {
			log.Warn("field crypto scope not ready, name fallbacks will be used", "error", err)
		}
	}

	// guard set, snapshotted once per run
	seen, err := s.suggestions.ActiveTriggerKeys(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("generate: load active trigger keys: %w", err)
	}
	ac := triggers.Context{
		UserID:   userID,
		Today:    time.Now().UTC(),
		Cipher:   s.cipher,
		SeenKeys: seen,
	}

	all := triggers.All()
	results := make([][]*domain.Suggestion, len(all))
	g, gctx := errgroup.WithContext(ctx)
	for i, tr := range all {
		g.Go(func() error {
			rows, err := tr.Run(gctx, ac, s.cfg, s.deps)
			if err != nil {
				// one trigger failing must not suppress the others
				log.Warn("trigger failed, contributing no candidates", "trigger", tr.Name, "error", err)
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var candidates []*domain.Suggestion
	for _, rows := range results {
		for _, row := range rows {
			if _, ok := seen[row.TriggerKey]; ok {
				continue
			}
			candidates = append(candidates, row)
		}
	}

	newGenerated := 0
	if len(candidates) > 0 {
		n, err := s.suggestions.UpsertMany(ctx, nil, candidates)
		if err != nil {
			log.Error("failed to persist new suggestions, continuing with existing set", "error", err, "candidates", len(candidates))
		} else {
			newGenerated = n
		}
	}

	active, err := s.suggestions.ListActive(ctx, nil, userID, domain.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("generate: reload active suggestions: %w", err)
	}
	sortSuggestions(active)

	if s.cache != nil && newGenerated > 0 {
		s.cache.Invalidate(ctx, userID)
	}

	return &AnalysisResult{
		Suggestions:  active,
		NewGenerated: newGenerated,
		Summary:      summarize(active),
		AnalyzedAt:   time.Now().UTC(),
	}, nil
}

func (s *suggestionService) ListActive(ctx context.Context, userID uuid.UUID) ([]*domain.Suggestion, error) {
	rows, err := s.suggestions.ListActive(ctx, nil, userID, domain.ActiveStatuses)
	if err != nil {
		return nil, fmt.Errorf("list active suggestions: %w", err)
	}
	sortSuggestions(rows)
	return rows, nil
}

func (s *suggestionService) GetUrgent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Suggestion, error) {
	rows, err := s.suggestions.ListByPriority(ctx, nil, userID, domain.PriorityUrgent, limit)
	if err != nil {
		return nil, fmt.Errorf("list urgent suggestions: %w", err)
	}
	return rows, nil
}

func (s *suggestionService) Briefing(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.cache != nil {
		if text, ok := s.cache.Get(ctx, userID); ok {
			return text, nil
		}
	}
	rows, err := s.ListActive(ctx, userID)
	if err != nil {
		return "", err
	}
	text := RenderBriefing(rows)
	if s.cache != nil {
		s.cache.Set(ctx, userID, text)
	}
	return text, nil
}

func (s *suggestionService) Complete(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	return s.transition(ctx, id, domain.StatusCompleted, &now)
}

func (s *suggestionService) Postpone(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, id, domain.StatusPostponed, nil)
}

func (s *suggestionService) Ignore(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(ctx, id, domain.StatusIgnored, nil)
}

func (s *suggestionService) transition(ctx context.Context, id uuid.UUID, status domain.SuggestionStatus, completedAt *time.Time) (bool, error) {
	row, err := s.suggestions.GetByID(ctx, nil, id)
	if err != nil {
		return false, fmt.Errorf("load suggestion: %w", err)
	}
	if row == nil {
		return false, nil
	}
	if row.Status.Terminal() {
		return false, fmt.Errorf("suggestion %s is already %s", id, row.Status)
	}
	ok, err := s.suggestions.UpdateStatus(ctx, nil, id, status, completedAt)
	if err != nil {
		return false, fmt.Errorf("update suggestion status: %w", err)
	}
	if ok && s.cache != nil {
		s.cache.Invalidate(ctx, row.UserID)
	}
	return ok, nil
}

func sortSuggestions(rows []*domain.Suggestion) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Priority.Rank(), rows[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}

func summarize(rows []*domain.Suggestion) AnalysisSummary {
	var sum AnalysisSummary
	for _, r := range rows {
		switch r.Priority {
		case domain.PriorityUrgent:
			sum.Urgent++
		case domain.PriorityImportant:
			sum.Important++
		case domain.PriorityUseful:
			sum.Useful++
		}
	}
	sum.Total = len(rows)
	return sum
}
