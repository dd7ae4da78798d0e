package domain

// ExtractionResult is what the vision backend reports for one photo. When
// Ingredients is empty, Description usually explains what the photo shows.
type ExtractionResult struct {
	Ingredients []string `json:"ingredients" jsonschema:"required,description=Raw ingredients visible in the photo"`
	Description string   `json:"description,omitempty" jsonschema:"description=What the photo shows when no ingredients are found"`
}

// SortPreference tells the recipe search how to rank results.
type SortPreference string

const (
	SortMaxUsedIngredients    SortPreference = "max-used-ingredients"
	SortMinMissingIngredients SortPreference = "min-missing-ingredients"
)

// DefaultSortPreference is used until the user picks one.
const DefaultSortPreference = SortMaxUsedIngredients

func ParseSortPreference(s string) (SortPreference, error) {
	switch p := SortPreference(s); p {
	case SortMaxUsedIngredients, SortMinMissingIngredients:
		return p, nil
	default:
		return "", &ValidationError{Field: "sort preference", Value: s}
	}
}

type ThemePreference string

const (
	ThemeLight  ThemePreference = "light"
	ThemeDark   ThemePreference = "dark"
	ThemeSystem ThemePreference = "system"
)

func ParseThemePreference(s string) (ThemePreference, error) {
	switch t := ThemePreference(s); t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return t, nil
	default:
		return "", &ValidationError{Field: "theme preference", Value: s}
	}
}

// RecipeSummary is one search hit. ID is its identity.
type RecipeSummary struct {
	ID                    int64  `json:"id"`
	Title                 string `json:"title"`
	Image                 string `json:"image"`
	ReadyInMinutes        int    `json:"readyInMinutes"`
	Servings              int    `json:"servings"`
	SourceURL             string `json:"sourceUrl"`
	Summary               string `json:"summary"`
	Vegetarian            bool   `json:"vegetarian"`
	Vegan                 bool   `json:"vegan"`
	GlutenFree            bool   `json:"glutenFree"`
	DairyFree             bool   `json:"dairyFree"`
	UsedIngredientCount   *int   `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount *int   `json:"missedIngredientCount,omitempty"`
	Likes                 *int   `json:"likes,omitempty"`
}

type RecipeDetail struct {
	RecipeSummary
	ExtendedIngredients  []IngredientLine   `json:"extendedIngredients"`
	Instructions         *string            `json:"instructions"`
	AnalyzedInstructions []InstructionGroup `json:"analyzedInstructions"`
}

// IngredientLine is passed through from the recipe API untouched.
type IngredientLine struct {
	ID           int64    `json:"id"`
	Aisle        *string  `json:"aisle"`
	Image        *string  `json:"image"`
	Consistency  *string  `json:"consistency"`
	Name         string   `json:"name"`
	NameClean    *string  `json:"nameClean"`
	Original     string   `json:"original"`
	OriginalName string   `json:"originalName"`
	Amount       float64  `json:"amount"`
	Unit         string   `json:"unit"`
	Meta         []string `json:"meta"`
	Measures     Measures `json:"measures"`
}

type Measures struct {
	US     Measure `json:"us"`
	Metric Measure `json:"metric"`
}

type Measure struct {
	Amount    float64 `json:"amount"`
	UnitShort string  `json:"unitShort"`
	UnitLong  string  `json:"unitLong"`
}

type InstructionGroup struct {
	Name  string            `json:"name"`
	Steps []InstructionStep `json:"steps"`
}

type InstructionStep struct {
	Number      int          `json:"number"`
	Step        string       `json:"step"`
	Ingredients []StepEntity `json:"ingredients,omitempty"`
	Equipment   []StepEntity `json:"equipment,omitempty"`
	Length      *StepLength  `json:"length,omitempty"`
}

type StepEntity struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localizedName"`
	Image         string `json:"image"`
}

type StepLength struct {
	Number int    `json:"number"`
	Unit   string `json:"unit"`
}

// Profile is the persisted user record.
type Profile struct {
	FirstName            string          `json:"firstName"`
	LastName             string          `json:"lastName"`
	CompletedOnboarding  bool            `json:"completedOnboarding"`
	RecipeSortPreference SortPreference  `json:"recipeSortPreference"`
	ThemePreference      ThemePreference `json:"themePreference"`
}

func DefaultProfile() Profile {
	return Profile{
		RecipeSortPreference: DefaultSortPreference,
		ThemePreference:      ThemeSystem,
	}
}
