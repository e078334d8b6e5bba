package analyzer

import (
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxH1Texts = 5

// AnalyzeStructure reads metadata, headings, semantic containers, images,
// links and AI opt-out directives.
func AnalyzeStructure(doc *goquery.Document) StructureResult {
	result := StructureResult{}

	result.Title = strings.TrimSpace(doc.Find("title").First().Text())
	result.HasTitle = result.Title != ""
	result.TitleLength = len([]rune(result.Title))

	result.Description = metaContent(doc, "description")
	result.HasDescription = result.Description != ""
	result.DescriptionLength = len([]rune(result.Description))

	h1 := doc.Find("h1")
	result.H1Count = h1.Length()
	result.H1Texts = make([]string, 0, maxH1Texts)
	h1.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= maxH1Texts {
			return false
		}
		result.H1Texts = append(result.H1Texts, collapseWhitespace(s.Text()))
		return true
	})
	result.H2Count = doc.Find("h2").Length()
	result.H3Count = doc.Find("h3").Length()

	result.HasMain = doc.Find("main").Length() > 0
	result.HasArticle = doc.Find("article").Length() > 0
	result.HasSection = doc.Find("section").Length() > 0
	result.HasNav = doc.Find("nav").Length() > 0
	result.HasHeader = doc.Find("header").Length() > 0
	result.HasFooter = doc.Find("footer").Length() > 0
	for _, present := range []bool{
		result.HasMain, result.HasArticle, result.HasSection,
		result.HasNav, result.HasHeader, result.HasFooter,
	} {
		if present {
			result.SemanticCount++
		}
	}

	images := doc.Find("img")
	result.TotalImages = images.Length()
	images.Each(func(_ int, s *goquery.Selection) {
		if alt, _ := s.Attr("alt"); alt != "" {
			result.ImagesWithAlt++
		}
	})
	result.ImagesAltPercentage = altPercentage(result.ImagesWithAlt, result.TotalImages)

	result.TotalLinks = doc.Find("a[href]").Length()

	robots := strings.ToLower(metaContent(doc, "robots"))
	result.HasNoAI = strings.Contains(robots, "noai")
	result.HasNoImageAI = strings.Contains(robots, "noimageai")

	return result
}

// altPercentage rounds half to even. A page without images scores 100.
func altPercentage(withAlt, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.RoundToEven(100 * float64(withAlt) / float64(total)))
}

// metaContent returns the content of the first meta tag with the given name.
func metaContent(doc *goquery.Document, name string) string {
	var content string
	doc.Find("meta[name]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if n, _ := s.Attr("name"); strings.EqualFold(strings.TrimSpace(n), name) {
			content, _ = s.Attr("content")
			return false
		}
		return true
	})
	return content
}
