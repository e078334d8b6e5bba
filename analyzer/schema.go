package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	jsonLDMimeType  = "application/ld+json"
	unknownTypeName = "Unknown"
)

// DetectSchema collects JSON-LD and microdata records. Blocks that fail to
// parse are skipped.
func DetectSchema(doc *goquery.Document) SchemaResult {
	result := SchemaResult{
		JSONLD:    []SchemaRecord{},
		Microdata: []SchemaRecord{},
		Types:     []string{},
	}
	seen := make(map[string]struct{})
	addType := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		result.Types = append(result.Types, name)
	}

	doc.Find("script[type]").Each(func(_ int, s *goquery.Selection) {
		if mime, _ := s.Attr("type"); !strings.EqualFold(strings.TrimSpace(mime), jsonLDMimeType) {
			return
		}
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return
		}
		for _, obj := range jsonLDObjects(decoded) {
			names := declaredTypes(obj)
			result.JSONLD = append(result.JSONLD, SchemaRecord{Type: names[0], Data: obj})
			for _, name := range names {
				addType(name)
			}
		}
	})

	doc.Find("[itemscope]").Each(func(_ int, s *goquery.Selection) {
		itemType, _ := s.Attr("itemtype")
		itemType = strings.TrimSpace(itemType)
		name := itemTypeName(itemType)
		result.Microdata = append(result.Microdata, SchemaRecord{Type: name, ItemType: itemType})
		addType(name)
	})

	result.TotalSchemas = len(result.JSONLD) + len(result.Microdata)
	result.HasSchema = result.TotalSchemas > 0
	return result
}

// jsonLDObjects flattens a top-level value into its objects. Non-object list
// entries are ignored.
func jsonLDObjects(v any) []map[string]any {
	switch val := v.(type) {
	case map[string]any:
		return []map[string]any{val}
	case []any:
		objs := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if obj, ok := item.(map[string]any); ok {
				objs = append(objs, obj)
			}
		}
		return objs
	default:
		return nil
	}
}

// declaredTypes returns the @type names of an object, never empty. A list
// value keeps its order; the first entry is the record's type.
func declaredTypes(obj map[string]any) []string {
	switch t := obj["@type"].(type) {
	case string:
		if t != "" {
			return []string{t}
		}
	case []any:
		var names []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	return []string{unknownTypeName}
}

// itemTypeName returns the last path segment of an itemtype URL.
func itemTypeName(itemType string) string {
	name := itemType
	if i := strings.LastIndex(itemType, "/"); i >= 0 {
		name = itemType[i+1:]
	}
	if name == "" {
		return unknownTypeName
	}
	return name
}
