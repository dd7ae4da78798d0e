package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vbonduro/mealmate/internal/domain"
	"github.com/vbonduro/mealmate/internal/spoonacular"
	"github.com/vbonduro/mealmate/internal/vision"
)

// Deps are the collaborators a Session calls out to.
type Deps struct {
	Images    ImageLoader
	Extractor vision.Extractor
	Searcher  RecipeSearcher
	Detailer  RecipeDetailer
}

// Session is one photo-to-recipes interaction. All methods are safe for
// concurrent use; a call whose inputs are replaced by a later call returns
// ErrSuperseded and leaves the newer state untouched.
type Session struct {
	id     string
	deps   Deps
	logger *slog.Logger

	mu sync.Mutex

	imageRef   string
	extGen     uint64
	extCancel  context.CancelFunc
	extraction State[*domain.ExtractionResult]

	recGen      uint64
	recCancel   context.CancelFunc
	recipes     State[[]domain.RecipeSummary]
	ingredients []string
	sort        domain.SortPreference
	offset      int

	detGen    uint64
	detCancel context.CancelFunc
	detail    DetailState
}

func NewSession(id string, sort domain.SortPreference, deps Deps, logger *slog.Logger) *Session {
	if sort == "" {
		sort = domain.DefaultSortPreference
	}
	return &Session{
		id:         id,
		deps:       deps,
		logger:     logger.With("session_id", id),
		extraction: idle[*domain.ExtractionResult](),
		recipes:    idle[[]domain.RecipeSummary](),
		sort:       sort,
		detail:     DetailState{State: idle[*domain.RecipeDetail]()},
	}
}

func (s *Session) ID() string { return s.id }

// recipeFetch captures the inputs of one recipe search so that its result can
// be matched against the session's current generation when it completes.
type recipeFetch struct {
	gen         uint64
	ctx         context.Context
	ingredients []string
	sort        domain.SortPreference
	offset      int
}

// Scan analyzes the image behind ref and, when ingredients are found, fetches
// the first page of recipes for them. An empty ref resets the session to idle.
// Any extraction or recipe fetch still running for an earlier image is
// cancelled and its result discarded.
func (s *Session) Scan(ctx context.Context, ref string) (Snapshot, error) {
	parent := ctx

	s.mu.Lock()
	s.extGen++
	gen := s.extGen
	cancelFunc(&s.extCancel)
	s.resetRecipesLocked()
	s.imageRef = ref
	if ref == "" {
		s.extraction = idle[*domain.ExtractionResult]()
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	ctx, s.extCancel = context.WithCancel(parent)
	s.extraction = loading[*domain.ExtractionResult]()
	s.mu.Unlock()

	s.logger.Info("ingredient extraction started", "image_ref", ref)
	result, err := s.extract(ctx, ref)

	s.mu.Lock()
	if gen != s.extGen {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Debug("discarding stale extraction result", "image_ref", ref)
		return snap, ErrSuperseded
	}
	cancelFunc(&s.extCancel)
	s.extraction = settled(result, err)
	if err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Error("ingredient extraction failed", "image_ref", ref, "error", err)
		return snap, err
	}
	s.logger.Info("ingredient extraction complete", "image_ref", ref, "ingredients", len(result.Ingredients))

	// The recipe fetch is started under the same lock as the extraction
	// commit, so a newer Scan either sees it and cancels it or runs after it.
	if len(result.Ingredients) == 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.ingredients = slices.Clone(result.Ingredients)
	fetch := s.beginRecipesLocked(parent, 0)
	s.mu.Unlock()

	return s.runRecipes(fetch)
}

// More replaces the visible recipes with the next page for the current
// ingredients and sort.
func (s *Session) More(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if len(s.ingredients) == 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, ErrNoIngredients
	}
	fetch := s.beginRecipesLocked(ctx, s.offset)
	s.mu.Unlock()

	return s.runRecipes(fetch)
}

// SetSort changes the sort preference. With ingredients present, recipes are
// fetched again from the first page.
func (s *Session) SetSort(ctx context.Context, sort domain.SortPreference) (Snapshot, error) {
	s.mu.Lock()
	if sort == s.sort {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.sort = sort
	if len(s.ingredients) == 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	s.offset = 0
	fetch := s.beginRecipesLocked(ctx, 0)
	s.mu.Unlock()

	return s.runRecipes(fetch)
}

// OpenRecipe loads the details of one recipe. A 404 sets NotFound instead of
// an error message.
func (s *Session) OpenRecipe(ctx context.Context, id string) (Snapshot, error) {
	s.mu.Lock()
	s.detGen++
	gen := s.detGen
	cancelFunc(&s.detCancel)
	if id == "" {
		s.detail = DetailState{State: idle[*domain.RecipeDetail]()}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	ctx, s.detCancel = context.WithCancel(ctx)
	s.detail = DetailState{State: loading[*domain.RecipeDetail](), RecipeID: id}
	s.mu.Unlock()

	detail, err := s.deps.Detailer.RecipeInformation(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.detGen {
		return s.snapshotLocked(), ErrSuperseded
	}
	cancelFunc(&s.detCancel)

	var notFound *domain.NotFoundError
	switch {
	case errors.As(err, &notFound):
		s.detail = DetailState{State: State[*domain.RecipeDetail]{Status: StatusError}, RecipeID: id, NotFound: true}
	default:
		s.detail = DetailState{State: settled(detail, err), RecipeID: id}
	}
	return s.snapshotLocked(), err
}

// Close cancels everything in flight and returns the session to idle.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extGen++
	s.detGen++
	cancelFunc(&s.extCancel)
	cancelFunc(&s.detCancel)
	s.resetRecipesLocked()
	s.imageRef = ""
	s.extraction = idle[*domain.ExtractionResult]()
	s.detail = DetailState{State: idle[*domain.RecipeDetail]()}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) extract(ctx context.Context, ref string) (*domain.ExtractionResult, error) {
	imageBase64, mimeType, err := s.deps.Images.LoadBase64(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return s.deps.Extractor.ExtractIngredients(ctx, imageBase64, mimeType)
}

func (s *Session) beginRecipesLocked(parent context.Context, offset int) *recipeFetch {
	s.recGen++
	cancelFunc(&s.recCancel)
	ctx, cancel := context.WithCancel(parent)
	s.recCancel = cancel
	s.recipes = loading[[]domain.RecipeSummary]()
	return &recipeFetch{
		gen:         s.recGen,
		ctx:         ctx,
		ingredients: slices.Clone(s.ingredients),
		sort:        s.sort,
		offset:      offset,
	}
}

func (s *Session) runRecipes(f *recipeFetch) (Snapshot, error) {
	s.logger.Info("recipe fetch started", "sort", f.sort, "offset", f.offset)
	recipes, err := s.deps.Searcher.SearchByIngredients(f.ctx, f.ingredients, f.sort, f.offset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if f.gen != s.recGen {
		s.logger.Debug("discarding stale recipe result", "sort", f.sort, "offset", f.offset)
		return s.snapshotLocked(), ErrSuperseded
	}
	cancelFunc(&s.recCancel)
	if err == nil && recipes == nil {
		recipes = []domain.RecipeSummary{}
	}
	s.recipes = settled(recipes, err)
	if err != nil {
		s.logger.Error("recipe fetch failed", "sort", f.sort, "offset", f.offset, "error", err)
		return s.snapshotLocked(), err
	}
	s.offset = f.offset + spoonacular.PageSize
	s.logger.Info("recipe fetch complete", "count", len(recipes), "next_offset", s.offset)
	return s.snapshotLocked(), nil
}

// resetRecipesLocked drops the ingredient list and any recipe results,
// cancelling a fetch that is still running.
func (s *Session) resetRecipesLocked() {
	s.recGen++
	cancelFunc(&s.recCancel)
	s.recipes = idle[[]domain.RecipeSummary]()
	s.ingredients = nil
	s.offset = 0
}

func (s *Session) snapshotLocked() Snapshot {
	recipes := s.recipes
	recipes.Data = slices.Clone(recipes.Data)
	return Snapshot{
		ID:          s.id,
		ImageRef:    s.imageRef,
		Extraction:  s.extraction,
		Recipes:     recipes,
		Ingredients: slices.Clone(s.ingredients),
		Sort:        s.sort,
		Offset:      s.offset,
		Detail:      s.detail,
	}
}

func cancelFunc(cancel *context.CancelFunc) {
	if *cancel != nil {
		(*cancel)()
		*cancel = nil
	}
}
