package analyzer

import (
	"maps"
	"slices"
)

// ContentResult is the visible-text view of a page.
type ContentResult struct {
	Text       string `json:"text"`
	WordCount  int    `json:"word_count"`
	IsSPAEmpty bool   `json:"is_spa_empty"`
	HasContent bool   `json:"has_content"`
}

// StructureResult holds the raw structural facts of a page. No thresholds are
// applied here.
type StructureResult struct {
	HasTitle          bool     `json:"has_title"`
	Title             string   `json:"title"`
	TitleLength       int      `json:"title_length"`
	HasDescription    bool     `json:"has_description"`
	Description       string   `json:"description"`
	DescriptionLength int      `json:"description_length"`
	H1Count           int      `json:"h1_count"`
	H1Texts           []string `json:"h1_texts"`
	H2Count           int      `json:"h2_count"`
	H3Count           int      `json:"h3_count"`

	HasMain       bool `json:"has_main"`
	HasArticle    bool `json:"has_article"`
	HasSection    bool `json:"has_section"`
	HasNav        bool `json:"has_nav"`
	HasHeader     bool `json:"has_header"`
	HasFooter     bool `json:"has_footer"`
	SemanticCount int  `json:"semantic_count"`

	TotalImages         int `json:"total_images"`
	ImagesWithAlt       int `json:"images_with_alt"`
	ImagesAltPercentage int `json:"images_alt_percentage"`

	TotalLinks int `json:"total_links"`

	HasNoAI      bool `json:"has_noai"`
	HasNoImageAI bool `json:"has_noimageai"`
}

// SchemaRecord is one structured-data entity found on the page.
type SchemaRecord struct {
	Type string `json:"type"`
	// Data is the decoded JSON-LD object; nil for microdata.
	Data map[string]any `json:"data,omitempty"`
	// ItemType is the raw itemtype attribute; empty for JSON-LD.
	ItemType string `json:"itemtype,omitempty"`
}

// SchemaResult lists the structured data found in both encodings.
type SchemaResult struct {
	HasSchema    bool           `json:"has_schema"`
	JSONLD       []SchemaRecord `json:"json_ld"`
	Microdata    []SchemaRecord `json:"microdata"`
	Types        []string       `json:"types"`
	TotalSchemas int            `json:"total_schemas"`
}

// Access is the resolved robots policy for one crawler.
type Access string

const (
	AccessAllowed Access = "allowed"
	AccessBlocked Access = "blocked"
	AccessUnknown Access = "unknown"
)

// RobotsResult is the per-crawler resolution of a robots document.
type RobotsResult struct {
	Exists       bool              `json:"exists"`
	AllowsAll    bool              `json:"allows_all"`
	BlockedCount int               `json:"blocked_count"`
	Crawlers     map[string]Access `json:"crawlers"`
	Error        string            `json:"error,omitempty"`

	// order keeps the requested crawler order for display.
	order []string
}

// Blocked returns the blocked crawler names in the order they were requested.
// Results not built by EvaluateRobots fall back to sorted names.
func (r RobotsResult) Blocked() []string {
	names := r.order
	if len(names) == 0 {
		names = slices.Sorted(maps.Keys(r.Crawlers))
	}

	var blocked []string
	for _, name := range names {
		if r.Crawlers[name] == AccessBlocked {
			blocked = append(blocked, name)
		}
	}
	return blocked
}

// Status is a per-category verdict.
type Status string

const (
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusWarning   Status = "warning"
	StatusCritical  Status = "critical"
)

// CategoryScore is one row of the breakdown.
type CategoryScore struct {
	Score  int    `json:"score"`
	Max    int    `json:"max"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// ScoreBreakdown is the per-category decomposition of the total score.
type ScoreBreakdown struct {
	Total      int                      `json:"total"`
	Max        int                      `json:"max"`
	Categories map[string]CategoryScore `json:"breakdown"`
	// AccessDegraded records that the page was only reachable with a
	// non-crawler user agent. It does not change any category score.
	AccessDegraded bool `json:"access_degraded"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
	PriorityInfo     Priority = "info"
)

// Rank orders priorities from most to least severe. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	case PriorityInfo:
		return 4
	default:
		return 5
	}
}

// Recommendation is one remediation item.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
}

// Summary is the headline view of a report.
type Summary struct {
	WordCount      int  `json:"word_count"`
	HasTitle       bool `json:"has_title"`
	HasDescription bool `json:"has_description"`
	H1Count        int  `json:"h1_count"`
	IsSPAEmpty     bool `json:"is_spa_empty"`
	RobotsAllowsAI bool `json:"robots_allows_ai"`
	HasSchema      bool `json:"has_schema"`
	ImagesWithAlt  int  `json:"images_with_alt"`
	IsAIBlocked    bool `json:"is_ai_blocked"`
}

// Report is the complete visibility analysis of one page.
type Report struct {
	AnalysisID      string                   `json:"analysis_id"`
	URL             string                   `json:"url"`
	Score           int                      `json:"score"`
	Max             int                      `json:"max"`
	Status          string                   `json:"status"`
	Emoji           string                   `json:"emoji"`
	Color           string                   `json:"color"`
	Summary         Summary                  `json:"summary"`
	Breakdown       map[string]CategoryScore `json:"breakdown"`
	Recommendations []Recommendation         `json:"recommendations"`
	PreviewText     string                   `json:"preview_text"`
	Crawlers        map[string]Access        `json:"crawlers"`
	Error           string                   `json:"error,omitempty"`
}
