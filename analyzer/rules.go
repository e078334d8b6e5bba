package analyzer

import (
	"errors"
	"fmt"
	"maps"
)

// SPAMarker identifies a known client-side app mount point. An empty ID matches
// every element with the given tag.
type SPAMarker struct {
	Tag string `yaml:"tag" json:"tag"`
	ID  string `yaml:"id" json:"id,omitempty"`
}

// StatusBand maps a minimum total score to an overall label.
type StatusBand struct {
	Min    int    `yaml:"min" json:"min"`
	Status string `yaml:"status" json:"status"`
	Emoji  string `yaml:"emoji" json:"emoji"`
	Color  string `yaml:"color" json:"color"`
}

// Rules holds every constant table the pipeline depends on. Components read
// their tables from here rather than from package globals.
type Rules struct {
	Crawlers     []string       `yaml:"crawlers"`
	SPAMarkers   []SPAMarker    `yaml:"spa_markers"`
	ExcludedTags []string       `yaml:"excluded_tags"`
	Maxima       map[string]int `yaml:"maxima"`
	// StatusBands must be ordered by descending Min.
	StatusBands []StatusBand `yaml:"status_bands"`

	// SPA shell density limits.
	SPAMaxTextLength int `yaml:"spa_max_text_length"`
	SPAMaxChildren   int `yaml:"spa_max_children"`

	// HasContentWords is the strict lower bound for ContentResult.HasContent.
	HasContentWords int `yaml:"has_content_words"`
	// PreviewLength is the rune length of Report.PreviewText before the ellipsis.
	PreviewLength int `yaml:"preview_length"`
}

// Category keys of the score breakdown.
const (
	CategoryContent     = "content"
	CategoryTitle       = "title"
	CategoryDescription = "description"
	CategoryH1          = "h1"
	CategoryStructure   = "structure"
	CategoryNoSPA       = "no_spa"
	CategoryRobots      = "robots"
	CategoryAltText     = "alt_text"
	CategorySchema      = "schema"
)

// Categories lists the breakdown keys in display order.
var Categories = []string{
	CategoryContent,
	CategoryTitle,
	CategoryDescription,
	CategoryH1,
	CategoryStructure,
	CategoryNoSPA,
	CategoryRobots,
	CategoryAltText,
	CategorySchema,
}

// MaxScore is the fixed ceiling of ScoreBreakdown.Total.
const MaxScore = 100

// baseMaxima are the category maxima the step functions are written against.
// Overridden maxima rescale the step values proportionally.
var baseMaxima = map[string]int{
	CategoryContent:     25,
	CategoryTitle:       10,
	CategoryDescription: 10,
	CategoryH1:          10,
	CategoryStructure:   10,
	CategoryNoSPA:       15,
	CategoryRobots:      10,
	CategoryAltText:     5,
	CategorySchema:      5,
}

// DefaultRules returns the built-in tables.
func DefaultRules() Rules {
	return Rules{
		Crawlers: []string{
			"GPTBot",
			"ChatGPT-User",
			"ClaudeBot",
			"anthropic-ai",
			"Google-Extended",
			"CCBot",
			"PerplexityBot",
			"Bytespider",
		},
		SPAMarkers: []SPAMarker{
			{Tag: "div", ID: "root"},     // React
			{Tag: "div", ID: "app"},      // Vue
			{Tag: "div", ID: "__next"},   // Next.js
			{Tag: "div", ID: "__nuxt"},   // Nuxt
			{Tag: "app-root"},            // Angular
			{Tag: "div", ID: "gatsby-focus-wrapper"},
		},
		ExcludedTags: []string{
			"script", "style", "noscript", "iframe", "svg",
			"canvas", "video", "audio", "head", "meta", "link",
		},
		Maxima: maps.Clone(baseMaxima),
		StatusBands: []StatusBand{
			{Min: 85, Status: "excellent", Emoji: "✅", Color: "#22c55e"},
			{Min: 70, Status: "good", Emoji: "🟢", Color: "#22c55e"},
			{Min: 50, Status: "improvable", Emoji: "🟡", Color: "#f59e0b"},
			{Min: 30, Status: "deficient", Emoji: "🟠", Color: "#f97316"},
			{Min: 0, Status: "critical", Emoji: "🔴", Color: "#ef4444"},
		},
		SPAMaxTextLength: 100,
		SPAMaxChildren:   3,
		HasContentWords:  50,
		PreviewLength:    500,
	}
}

// Validate reports tables that would break the scoring invariants.
func (r Rules) Validate() error {
	if len(r.Crawlers) == 0 {
		return errors.New("rules: crawler catalogue is empty")
	}
	sum := 0
	for _, key := range Categories {
		limit, ok := r.Maxima[key]
		if !ok {
			return fmt.Errorf("rules: missing maximum for category %q", key)
		}
		if limit < 0 {
			return fmt.Errorf("rules: negative maximum for category %q", key)
		}
		sum += limit
	}
	if sum != MaxScore {
		return fmt.Errorf("rules: category maxima sum to %d, want %d", sum, MaxScore)
	}
	if len(r.StatusBands) == 0 {
		return errors.New("rules: no status bands")
	}
	for i := 1; i < len(r.StatusBands); i++ {
		if r.StatusBands[i].Min >= r.StatusBands[i-1].Min {
			return fmt.Errorf("rules: status band %q is not below %q",
				r.StatusBands[i].Status, r.StatusBands[i-1].Status)
		}
	}
	return nil
}

// Band returns the status band for a total score. Scores below every band
// fall into the last one.
func (r Rules) Band(total int) StatusBand {
	for _, band := range r.StatusBands {
		if total >= band.Min {
			return band
		}
	}
	return r.StatusBands[len(r.StatusBands)-1]
}
