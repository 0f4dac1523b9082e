package focus

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"zenith/internal/kvstore"
	"zenith/internal/models"
)

// StorageKey is the key the daily focus is cached under
const StorageKey = "zenith.dailyFocus"

// Generator produces a new focus text
type Generator interface {
	GenerateDailyFocus(ctx context.Context) (string, error)
}

// Service serves one focus per local calendar day
type Service struct {
	gen    Generator
	store  kvstore.Store
	logger *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates a daily focus service
func NewService(gen Generator, store kvstore.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{gen: gen, store: store, logger: logger, now: time.Now}
}

// SetClock overrides time.Now
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns today's focus, generating it if the cache is from another day
func (s *Service) Get(ctx context.Context) (models.DailyFocus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := models.DateKey(s.now())
	if cached, ok := s.cached(); ok && cached.Date == today {
		return cached, nil
	}
	return s.generate(ctx, today)
}

// Refresh generates a new focus for today regardless of the cache
func (s *Service) Refresh(ctx context.Context) (models.DailyFocus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generate(ctx, models.DateKey(s.now()))
}

// cached reads the stored focus; unreadable records count as absent
func (s *Service) cached() (models.DailyFocus, bool) {
	raw, ok, err := s.store.Get(StorageKey)
	if err != nil {
		s.logger.Printf("failed to read daily focus: %v", err)
		return models.DailyFocus{}, false
	}
	if !ok {
		return models.DailyFocus{}, false
	}

	var f models.DailyFocus
	if err := sonic.UnmarshalString(raw, &f); err != nil || f.Text == "" {
		s.logger.Printf("ignoring corrupt daily focus record")
		return models.DailyFocus{}, false
	}
	return f, true
}

func (s *Service) generate(ctx context.Context, today string) (models.DailyFocus, error) {
	text, err := s.gen.GenerateDailyFocus(ctx)
	if err != nil {
		if _, ok := models.KindOf(err); !ok {
			err = &models.GenerationError{Kind: models.KindFocus, Err: err}
		}
		return models.DailyFocus{}, err
	}

	f := models.DailyFocus{Text: text, Date: today}
	data, err := sonic.MarshalString(f)
	if err != nil {
		return f, nil
	}
	if err := s.store.Set(StorageKey, data); err != nil {
		s.logger.Printf("failed to cache daily focus: %v", err)
	}
	return f, nil
}
