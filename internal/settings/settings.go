// Package settings holds the user profile and starred recipes in memory and
// writes every change through to a key/value store.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/vbonduro/mealmate/internal/domain"
)

const (
	ProfileKey = "mealmate:user"
	StarredKey = "mealmate:starred-recipes"
)

// kvRepository is the subset of store.KVStore that Settings requires.
type kvRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

type Settings struct {
	kv     kvRepository
	logger *slog.Logger

	mu      sync.RWMutex
	profile domain.Profile
	starred []domain.RecipeSummary
}

// New returns settings holding defaults. Call Load to read persisted values.
func New(kv kvRepository, logger *slog.Logger) *Settings {
	return &Settings{
		kv:      kv,
		logger:  logger,
		profile: domain.DefaultProfile(),
		starred: []domain.RecipeSummary{},
	}
}

// Load reads the persisted profile and starred recipes. Values that cannot be
// decoded are logged and replaced by defaults; only store failures are
// returned.
func (s *Settings) Load(ctx context.Context) error {
	profile := domain.DefaultProfile()
	raw, ok, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.Warn("stored profile is unreadable, using defaults", "error", err)
			profile = domain.DefaultProfile()
		}
		profile = sanitize(profile, s.logger)
	}

	starred := []domain.RecipeSummary{}
	raw, ok, err = s.kv.Get(ctx, StarredKey)
	if err != nil {
		return fmt.Errorf("failed to load starred recipes: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &starred); err != nil || starred == nil {
			s.logger.Warn("stored starred recipes are unreadable, starting empty", "error", err)
			starred = []domain.RecipeSummary{}
		}
	}

	s.mu.Lock()
	s.profile = profile
	s.starred = starred
	s.mu.Unlock()

	s.logger.Info("settings loaded", "starred", len(starred), "sort", profile.RecipeSortPreference)
	return nil
}

func (s *Settings) Profile() domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// UpdateProfile validates and stores p. Empty preferences keep their current
// value.
func (s *Settings) UpdateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.RecipeSortPreference == "" {
		p.RecipeSortPreference = s.profile.RecipeSortPreference
	}
	if p.ThemePreference == "" {
		p.ThemePreference = s.profile.ThemePreference
	}
	if _, err := domain.ParseSortPreference(string(p.RecipeSortPreference)); err != nil {
		return s.profile, err
	}
	if _, err := domain.ParseThemePreference(string(p.ThemePreference)); err != nil {
		return s.profile, err
	}

	if err := s.putJSON(ctx, ProfileKey, p); err != nil {
		return s.profile, err
	}
	s.profile = p
	return p, nil
}

func (s *Settings) SetSortPreference(ctx context.Context, sort domain.SortPreference) error {
	if _, err := domain.ParseSortPreference(string(sort)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile.RecipeSortPreference == sort {
		return nil
	}
	p := s.profile
	p.RecipeSortPreference = sort
	if err := s.putJSON(ctx, ProfileKey, p); err != nil {
		return err
	}
	s.profile = p
	return nil
}

// Starred returns starred recipes, most recently starred first.
func (s *Settings) Starred() []domain.RecipeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.starred)
}

func (s *Settings) IsStarred(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.ContainsBy(s.starred, func(r domain.RecipeSummary) bool { return r.ID == id })
}

// ToggleStar removes recipe from the starred list if present and otherwise
// puts it first. It reports whether the recipe is starred afterwards.
func (s *Settings) ToggleStar(ctx context.Context, recipe domain.RecipeSummary) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	isRecipe := func(r domain.RecipeSummary) bool { return r.ID == recipe.ID }
	starred := !lo.ContainsBy(s.starred, isRecipe)

	var next []domain.RecipeSummary
	if starred {
		next = append([]domain.RecipeSummary{recipe}, s.starred...)
	} else {
		next = lo.Reject(s.starred, func(r domain.RecipeSummary, _ int) bool { return isRecipe(r) })
	}

	if err := s.putJSON(ctx, StarredKey, next); err != nil {
		return !starred, err
	}
	s.starred = next
	return starred, nil
}

func (s *Settings) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Put(ctx, key, string(data)); err != nil {
		return err
	}
	return nil
}

// sanitize replaces preferences that are not recognised with their defaults.
func sanitize(p domain.Profile, logger *slog.Logger) domain.Profile {
	def := domain.DefaultProfile()
	if _, err := domain.ParseSortPreference(string(p.RecipeSortPreference)); err != nil {
		if p.RecipeSortPreference != "" {
			logger.Warn("ignoring stored sort preference", "value", p.RecipeSortPreference)
		}
		p.RecipeSortPreference = def.RecipeSortPreference
	}
	if _, err := domain.ParseThemePreference(string(p.ThemePreference)); err != nil {
		if p.ThemePreference != "" {
			logger.Warn("ignoring stored theme preference", "value", p.ThemePreference)
		}
		p.ThemePreference = def.ThemePreference
	}
	return p
}
