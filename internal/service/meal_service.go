package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/flow"
	"github.com/vbonduro/mealmate/internal/photostore"
	"github.com/vbonduro/mealmate/internal/summary"
	"github.com/vbonduro/mealmate/internal/vision"
)

// ErrSessionNotFound is returned for an unknown or closed session id.
var ErrSessionNotFound = errors.New("session not found")

// recipeClient is the subset of spoonacular.Client that MealService requires.
type recipeClient interface {
	flow.RecipeSearcher
	flow.RecipeDetailer
}

// settingsStore is the subset of settings.Settings that MealService requires.
type settingsStore interface {
	Profile() domain.Profile
	UpdateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error)
	SetSortPreference(ctx context.Context, sort domain.SortPreference) error
	Starred() []domain.RecipeSummary
	IsStarred(id int64) bool
	ToggleStar(ctx context.Context, recipe domain.RecipeSummary) (bool, error)
}

type sessionEntry struct {
	session *flow.Session
	photos  []string
}

type MealService struct {
	extractor vision.Extractor
	recipes   recipeClient
	photoStg  photostore.PhotoStore
	settings  settingsStore
	logger    *slog.Logger

	details singleflight.Group

	// TODO: expire sessions that have been idle for a while; today they live
	// until DELETE /scans/{id} or process exit.
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func NewMealService(
	extractor vision.Extractor,
	recipes recipeClient,
	photoStg photostore.PhotoStore,
	settings settingsStore,
	logger *slog.Logger,
) *MealService {
	return &MealService{
		extractor: extractor,
		recipes:   recipes,
		photoStg:  photoStg,
		settings:  settings,
		logger:    logger,
		sessions:  make(map[string]*sessionEntry),
	}
}

// CreateSession registers an idle session using the stored sort preference.
func (s *MealService) CreateSession() *flow.Session {
	id := uuid.NewString()
	session := flow.NewSession(id, s.settings.Profile().RecipeSortPreference, flow.Deps{
		Images:    photostore.Base64Loader{Store: s.photoStg},
		Extractor: s.extractor,
		Searcher:  s.recipes,
		Detailer:  s.recipes,
	}, s.logger)

	s.mu.Lock()
	s.sessions[id] = &sessionEntry{session: session}
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", id)
	return session
}

// ScanImage stores the photo and runs extraction and the first recipe search
// for it in the session. A scan already running in the session is superseded.
// The returned snapshot is valid even when err is non-nil.
func (s *MealService) ScanImage(ctx context.Context, sessionID, mimeType string, image []byte) (flow.Snapshot, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}

	s.logger.Info("scan started", "session_id", sessionID, "mime_type", mimeType, "bytes", len(image))
	storageKey, err := s.photoStg.Save(ctx, "scan", mimeType, bytes.NewReader(image))
	if err != nil {
		return entry.session.Snapshot(), fmt.Errorf("failed to save photo: %w", err)
	}
	s.logger.Debug("photo saved", "session_id", sessionID, "storage_key", storageKey)

	s.mu.Lock()
	if s.sessions[sessionID] != entry {
		s.mu.Unlock()
		// Closed while the photo was being saved; nothing else will delete it.
		if err := s.photoStg.Delete(context.WithoutCancel(ctx), storageKey); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("failed to delete orphaned photo", "session_id", sessionID, "storage_key", storageKey, "error", err)
		}
		return flow.Snapshot{}, ErrSessionNotFound
	}
	entry.photos = append(entry.photos, storageKey)
	s.mu.Unlock()

	return entry.session.Scan(ctx, storageKey)
}

func (s *MealService) Snapshot(sessionID string) (flow.Snapshot, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	return entry.session.Snapshot(), nil
}

// MoreRecipes replaces the session's recipes with the next page.
func (s *MealService) MoreRecipes(ctx context.Context, sessionID string) (flow.Snapshot, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	return entry.session.More(ctx)
}

// SetSort stores sort as the user's preference and applies it to the session.
func (s *MealService) SetSort(ctx context.Context, sessionID, sort string) (flow.Snapshot, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	pref, err := domain.ParseSortPreference(sort)
	if err != nil {
		return entry.session.Snapshot(), err
	}
	if err := s.settings.SetSortPreference(ctx, pref); err != nil {
		return entry.session.Snapshot(), fmt.Errorf("failed to save sort preference: %w", err)
	}
	return entry.session.SetSort(ctx, pref)
}

// OpenRecipe loads recipe details into the session's detail slot.
func (s *MealService) OpenRecipe(ctx context.Context, sessionID, recipeID string) (flow.Snapshot, error) {
	entry, err := s.entry(sessionID)
	if err != nil {
		return flow.Snapshot{}, err
	}
	return entry.session.OpenRecipe(ctx, recipeID)
}

// CloseSession cancels the session's work and deletes its photos.
func (s *MealService) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	var photos []string
	if ok {
		photos = slices.Clone(entry.photos)
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.session.Close()
	for _, key := range photos {
		if err := s.photoStg.Delete(ctx, key); err != nil && !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("failed to delete photo file", "session_id", sessionID, "storage_key", key, "error", err)
		}
	}
	s.logger.Info("session closed", "session_id", sessionID)
	return nil
}

// RecipeView is a recipe with its summary split for display.
type RecipeView struct {
	Detail   *domain.RecipeDetail `json:"recipe"`
	Summary  summary.Parsed       `json:"summary"`
	Segments []summary.Segment    `json:"segments"`
	Starred  bool                 `json:"starred"`
}

// RecipeDetails fetches one recipe. Concurrent lookups of the same id share a
// single upstream request.
func (s *MealService) RecipeDetails(ctx context.Context, recipeID string) (*RecipeView, error) {
	detail, err := s.recipeDetail(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return &RecipeView{
		Detail:   detail,
		Summary:  summary.ParseAndLinkSummary(detail.Summary),
		Segments: summary.Segments(detail.Summary),
		Starred:  s.settings.IsStarred(detail.ID),
	}, nil
}

func (s *MealService) recipeDetail(ctx context.Context, recipeID string) (*domain.RecipeDetail, error) {
	v, err, shared := s.details.Do(recipeID, func() (any, error) {
		// Detached so that one caller going away does not fail the others.
		return s.recipes.RecipeInformation(context.WithoutCancel(ctx), recipeID)
	})
	if shared {
		s.logger.Debug("recipe details shared", "recipe_id", recipeID)
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.RecipeDetail), nil
}

// ToggleStar stars or unstars a recipe by id and reports whether it is
// starred afterwards. Starring looks the recipe up to store its summary.
func (s *MealService) ToggleStar(ctx context.Context, recipeID int64) (bool, error) {
	if s.settings.IsStarred(recipeID) {
		return s.settings.ToggleStar(ctx, domain.RecipeSummary{ID: recipeID})
	}
	detail, err := s.recipeDetail(ctx, strconv.FormatInt(recipeID, 10))
	if err != nil {
		return false, err
	}
	return s.settings.ToggleStar(ctx, detail.RecipeSummary)
}

func (s *MealService) Starred() []domain.RecipeSummary {
	return s.settings.Starred()
}

func (s *MealService) Profile() domain.Profile {
	return s.settings.Profile()
}

func (s *MealService) UpdateProfile(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	return s.settings.UpdateProfile(ctx, p)
}

func (s *MealService) entry(sessionID string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

// FormatIngredientList joins ingredients for display, upper-casing the first
// letter of every word: ["olive oil", "egg"] becomes "Olive Oil, Egg".
func FormatIngredientList(ingredients []string) string {
	titled := lo.Map(ingredients, func(ingredient string, _ int) string {
		words := strings.Split(ingredient, " ")
		return strings.Join(lo.Map(words, func(w string, _ int) string { return upperFirst(w) }), " ")
	})
	return strings.Join(titled, ", ")
}

func upperFirst(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
