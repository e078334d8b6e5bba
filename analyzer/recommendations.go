package analyzer

import (
	"fmt"
	"slices"
	"strings"
)

// Recommend evaluates every remediation condition in a fixed order and returns
// the matches sorted by severity. Equal severities keep generation order, so
// the first entries are stable across runs.
func Recommend(in Inputs, breakdown ScoreBreakdown) []Recommendation {
	recs := make([]Recommendation, 0, 8)
	add := func(p Priority, title, description, impact string) {
		recs = append(recs, Recommendation{Priority: p, Title: title, Description: description, Impact: impact})
	}

	if in.AIBlocked {
		add(PriorityCritical,
			"Your server actively blocks AI crawlers",
			"The page refused the GPTBot user agent and only answered a regular browser. A WAF or bot-protection rule (for example Cloudflare) is making the site invisible to ChatGPT.",
			"Access is denied for most AI models.")
	}

	if in.Content.IsSPAEmpty {
		add(PriorityCritical,
			"Your site uses client-side rendering (empty SPA shell)",
			"AI crawlers do not execute JavaScript, so ChatGPT, Gemini and Claude see an empty page. Consider server-side rendering (SSR) or static site generation (SSG).",
			"AI models see almost none of your content.")
	}

	if !in.Robots.AllowsAll {
		if blocked := in.Robots.Blocked(); len(blocked) > 0 {
			add(PriorityHigh,
				"Your robots.txt blocks AI crawlers",
				fmt.Sprintf("The following crawlers are blocked: %s. They cannot index your content.", strings.Join(blocked, ", ")),
				"These AI models cannot access your site.")
		}
	}

	switch words := in.Content.WordCount; {
	case words < 200:
		add(PriorityHigh,
			"Insufficient content detected",
			fmt.Sprintf("Only %d words were detected. Add descriptive text about your services, products or value proposition so AI models can understand your business.", words),
			"Minimal content makes your brand hard to understand.")
	case words < 500:
		add(PriorityMedium,
			"Limited content",
			fmt.Sprintf("%d words were detected. Consider adding more content so AI models understand your business better.", words),
			"More content improves how AI models understand your brand.")
	}

	if breakdown.Categories[CategoryDescription].Status != StatusExcellent {
		if length := in.Structure.DescriptionLength; length == 0 {
			add(PriorityMedium,
				"Missing meta description",
				"Add a 120-160 character meta description that clearly summarises your value proposition.",
				"AI models use the description to understand your site.")
		} else {
			add(PriorityLow,
				"Meta description outside the optimal range",
				fmt.Sprintf("Your meta description has %d characters. The ideal range is 120-160 characters.", length),
				"An optimal description improves comprehension.")
		}
	}

	switch h1 := in.Structure.H1Count; {
	case h1 == 0:
		add(PriorityMedium,
			"Missing H1 heading",
			"Add exactly one H1 that clearly describes the main content of the page.",
			"The H1 is key to understanding the main topic.")
	case h1 > 1:
		add(PriorityLow,
			"Multiple H1 headings detected",
			fmt.Sprintf("%d H1 headings were found. Use only one per page and structure the rest with H2/H3.", h1),
			"Multiple H1 headings blur the content hierarchy.")
	}

	if !in.Schema.HasSchema {
		add(PriorityMedium,
			"No structured data detected",
			"Add Schema.org JSON-LD describing your entity (Organization, LocalBusiness, etc.) so AI models know what you are and what you do.",
			"Structured data improves AI accuracy.")
	}

	if s := in.Structure; s.ImagesAltPercentage < altTextExcellent && s.TotalImages > 0 {
		add(PriorityLow,
			"Images without alternative text",
			fmt.Sprintf("%d images have no alt attribute. AI models cannot interpret images without a text description.", s.TotalImages-s.ImagesWithAlt),
			"Visual content is not accessible to AI models.")
	}

	if in.Structure.SemanticCount < 3 {
		add(PriorityLow,
			"Limited semantic structure",
			"Use more HTML5 semantic elements such as <article>, <section>, <main>, <header> and <footer> to structure your content.",
			"Semantic structure improves layout comprehension.")
	}

	if directives := optOutDirectives(in.Structure); len(directives) > 0 {
		add(PriorityInfo,
			fmt.Sprintf("AI opt-out meta tag detected (%s)", strings.Join(directives, ", ")),
			"Your robots meta tag asks AI systems not to use this page. If this is not intentional, remove it.",
			"AI systems that honour this tag will not index you.")
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return recs
}

func optOutDirectives(s StructureResult) []string {
	var directives []string
	if s.HasNoAI {
		directives = append(directives, "noai")
	}
	if s.HasNoImageAI {
		directives = append(directives, "noimageai")
	}
	return directives
}
