package analyzer

import (
	"fmt"
	"strings"
)

const (
	titleMinLength       = 10
	titleDetailLength    = 60
	schemaDetailLength   = 50
	descriptionIdealMin  = 120
	descriptionIdealMax  = 160
	altTextExcellent     = 80
	altTextWarning       = 50
	robotsCriticalBlocks = 4
	notDetected          = "Not detected"
)

// Inputs bundles the four analyses consumed by scoring and recommendations.
type Inputs struct {
	Content   ContentResult
	Structure StructureResult
	Robots    RobotsResult
	Schema    SchemaResult
	// AIBlocked is set when the page only answered a non-crawler user agent.
	AIBlocked bool
}

// Score builds the category breakdown. Each category is a step function of its
// own data; no category reads another's score.
func Score(in Inputs, rules Rules) ScoreBreakdown {
	b := ScoreBreakdown{
		Max:            MaxScore,
		Categories:     make(map[string]CategoryScore, len(Categories)),
		AccessDegraded: in.AIBlocked,
	}

	set := func(key string, score int, status Status, detail string) {
		limit := rules.Maxima[key]
		score = rescale(score, baseMaxima[key], limit)
		if score > limit {
			score = limit
		}
		b.Categories[key] = CategoryScore{Score: score, Max: limit, Status: status, Detail: detail}
		b.Total += score
	}

	score, status := scoreContent(in.Content.WordCount)
	set(CategoryContent, score, status, fmt.Sprintf("%d words detected", in.Content.WordCount))

	score, status = scoreTitle(in.Structure)
	set(CategoryTitle, score, status, titleDetail(in.Structure.Title))

	score, status = scoreDescription(in.Structure)
	desc := notDetected
	if in.Structure.DescriptionLength > 0 {
		desc = fmt.Sprintf("%d characters", in.Structure.DescriptionLength)
	}
	set(CategoryDescription, score, status, desc)

	score, status = scoreH1(in.Structure.H1Count)
	set(CategoryH1, score, status, fmt.Sprintf("%d H1 detected", in.Structure.H1Count))

	score, status = scoreSemantic(in.Structure.SemanticCount)
	set(CategoryStructure, score, status, fmt.Sprintf("%d semantic elements", in.Structure.SemanticCount))

	score, status = scoreNoSPA(in.Content)
	spa := "Content visible without JavaScript"
	if in.Content.IsSPAEmpty {
		spa = "Empty SPA shell detected"
	}
	set(CategoryNoSPA, score, status, spa)

	score, status = scoreRobots(in.Robots)
	set(CategoryRobots, score, status, fmt.Sprintf("%d crawlers blocked", in.Robots.BlockedCount))

	score, status = scoreAltText(in.Structure.ImagesAltPercentage)
	set(CategoryAltText, score, status, fmt.Sprintf("%d%% of images with alt", in.Structure.ImagesAltPercentage))

	score, status = scoreSchema(in.Schema.HasSchema)
	set(CategorySchema, score, status, schemaDetail(in.Schema.Types))

	return b
}

// rescale maps a step value written against base onto limit, rounding half up.
// The top step always lands exactly on limit.
func rescale(score, base, limit int) int {
	if base == limit || base == 0 {
		return score
	}
	return (score*limit + base/2) / base
}

func scoreContent(words int) (int, Status) {
	switch {
	case words >= 500:
		return 25, StatusExcellent
	case words >= 200:
		return 15, StatusGood
	case words >= 50:
		return 8, StatusWarning
	default:
		return 2, StatusCritical
	}
}

func scoreTitle(s StructureResult) (int, Status) {
	switch {
	case s.HasTitle && s.TitleLength >= titleMinLength:
		return 10, StatusExcellent
	case s.HasTitle:
		return 5, StatusWarning
	default:
		return 0, StatusCritical
	}
}

func scoreDescription(s StructureResult) (int, Status) {
	switch {
	case s.DescriptionLength >= descriptionIdealMin && s.DescriptionLength <= descriptionIdealMax:
		return 10, StatusExcellent
	case s.HasDescription:
		return 5, StatusWarning
	default:
		return 0, StatusCritical
	}
}

func scoreH1(count int) (int, Status) {
	switch {
	case count == 1:
		return 10, StatusExcellent
	case count > 1:
		return 5, StatusWarning
	default:
		return 0, StatusCritical
	}
}

func scoreSemantic(count int) (int, Status) {
	switch {
	case count >= 4:
		return 10, StatusExcellent
	case count >= 2:
		return 6, StatusGood
	case count >= 1:
		return 3, StatusWarning
	default:
		return 0, StatusCritical
	}
}

func scoreNoSPA(c ContentResult) (int, Status) {
	switch {
	case !c.IsSPAEmpty && c.HasContent:
		return 15, StatusExcellent
	case c.IsSPAEmpty:
		return 0, StatusCritical
	default:
		return 8, StatusWarning
	}
}

func scoreRobots(r RobotsResult) (int, Status) {
	switch {
	case r.AllowsAll:
		return 10, StatusExcellent
	case r.BlockedCount > robotsCriticalBlocks:
		return 0, StatusCritical
	case r.BlockedCount > 0:
		return 5, StatusWarning
	default:
		return 10, StatusExcellent
	}
}

func scoreAltText(percentage int) (int, Status) {
	switch {
	case percentage >= altTextExcellent:
		return 5, StatusExcellent
	case percentage >= altTextWarning:
		return 3, StatusWarning
	default:
		return 0, StatusCritical
	}
}

func scoreSchema(hasSchema bool) (int, Status) {
	if hasSchema {
		return 5, StatusExcellent
	}
	return 0, StatusWarning
}

func titleDetail(title string) string {
	if title == "" {
		return notDetected
	}
	return truncateRunes(title, titleDetailLength)
}

func schemaDetail(types []string) string {
	if len(types) == 0 {
		return notDetected
	}
	return truncateRunes(strings.Join(types, ", "), schemaDetailLength)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
