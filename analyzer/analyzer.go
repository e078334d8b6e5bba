// Package analyzer scores how visible a page is to AI crawlers. Every function
// here is pure: it reads an already-parsed document and an already-fetched
// robots document and never performs I/O.
package analyzer

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// ParseHTML builds the document handle shared by the analyzers.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Analyze runs the four independent analyses concurrently. They only read the
// document, so sharing it is safe.
func Analyze(doc *goquery.Document, robots RobotsDocument, aiBlocked bool, rules Rules) Inputs {
	in := Inputs{AIBlocked: aiBlocked}

	var g errgroup.Group
	g.Go(func() error {
		in.Content = ExtractContent(doc, rules)
		return nil
	})
	g.Go(func() error {
		in.Structure = AnalyzeStructure(doc)
		return nil
	})
	g.Go(func() error {
		in.Schema = DetectSchema(doc)
		return nil
	})
	g.Go(func() error {
		in.Robots = EvaluateRobots(robots, rules.Crawlers)
		return nil
	})
	_ = g.Wait()

	return in
}

// Evaluate runs the whole pipeline and assembles the report. The AnalysisID
// and URL are left for the caller.
func Evaluate(doc *goquery.Document, robots RobotsDocument, aiBlocked bool, rules Rules) *Report {
	in := Analyze(doc, robots, aiBlocked, rules)
	return BuildReport(in, rules)
}

// BuildReport scores the analyses and derives recommendations and summary.
func BuildReport(in Inputs, rules Rules) *Report {
	breakdown := Score(in, rules)
	band := rules.Band(breakdown.Total)

	return &Report{
		Score:  breakdown.Total,
		Max:    breakdown.Max,
		Status: band.Status,
		Emoji:  band.Emoji,
		Color:  band.Color,
		Summary: Summary{
			WordCount:      in.Content.WordCount,
			HasTitle:       in.Structure.HasTitle,
			HasDescription: in.Structure.HasDescription,
			H1Count:        in.Structure.H1Count,
			IsSPAEmpty:     in.Content.IsSPAEmpty,
			RobotsAllowsAI: in.Robots.AllowsAll,
			HasSchema:      in.Schema.HasSchema,
			ImagesWithAlt:  in.Structure.ImagesAltPercentage,
			IsAIBlocked:    in.AIBlocked,
		},
		Breakdown:       breakdown.Categories,
		Recommendations: Recommend(in, breakdown),
		PreviewText:     Preview(in.Content.Text, rules.PreviewLength),
		Crawlers:        in.Robots.Crawlers,
	}
}

// ErrorReport is the fixed result for a page that could not be fetched.
func ErrorReport(statusCode int) *Report {
	return &Report{
		Score:     0,
		Max:       MaxScore,
		Status:    "error",
		Emoji:     "❌",
		Color:     "#ef4444",
		Error:     fmt.Sprintf("could not access the URL (status %d)", statusCode),
		Summary:   Summary{IsAIBlocked: true},
		Breakdown: map[string]CategoryScore{},
		Recommendations: []Recommendation{{
			Priority:    PriorityCritical,
			Title:       "The server blocks external clients",
			Description: "The page could not be retrieved. Review your WAF, Cloudflare or bot-protection rules.",
			Impact:      "AI crawlers cannot read any of your content.",
		}},
		Crawlers: map[string]Access{"GPTBot": AccessBlocked},
	}
}

// UnparsableReport is the fixed result for a page that was retrieved but
// whose markup could not be parsed.
func UnparsableReport() *Report {
	return &Report{
		Score:     0,
		Max:       MaxScore,
		Status:    "error",
		Emoji:     "❌",
		Color:     "#ef4444",
		Error:     "could not parse the page HTML",
		Breakdown: map[string]CategoryScore{},
		Recommendations: []Recommendation{{
			Priority:    PriorityCritical,
			Title:       "The page markup could not be read",
			Description: "The server answered but the response is not parseable HTML. Check the Content-Type and the document served to crawlers.",
			Impact:      "AI crawlers cannot extract any of your content.",
		}},
		Crawlers: map[string]Access{},
	}
}
