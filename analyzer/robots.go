package analyzer

import (
	"strings"
)

// RobotsState is the outcome of retrieving a robots document.
type RobotsState int

const (
	// RobotsFound means the document was retrieved and Body holds it.
	RobotsFound RobotsState = iota
	// RobotsNotFound means the site has no robots document.
	RobotsNotFound
	// RobotsUnavailable means retrieval failed for any other reason.
	RobotsUnavailable
)

// RobotsDocument is an already-fetched robots document or the reason it is
// missing.
type RobotsDocument struct {
	State RobotsState
	Body  string
	// Note describes why the document is unavailable.
	Note string
}

// RobotsFromBody wraps a retrieved robots document.
func RobotsFromBody(body string) RobotsDocument {
	return RobotsDocument{State: RobotsFound, Body: body}
}

// RobotsMissing signals that the site has no robots document.
func RobotsMissing() RobotsDocument {
	return RobotsDocument{State: RobotsNotFound}
}

// RobotsUnreachable signals a failed retrieval.
func RobotsUnreachable(note string) RobotsDocument {
	return RobotsDocument{State: RobotsUnavailable, Note: note}
}

type robotsDirective struct {
	disallow bool
	path     string
}

// EvaluateRobots resolves each crawler against the document. Only a full-site
// disallow ("/" or empty path) blocks; path prefixes are not matched. Each
// user-agent line starts its own rule group.
func EvaluateRobots(doc RobotsDocument, crawlers []string) RobotsResult {
	names := uniqueNames(crawlers)
	result := RobotsResult{
		AllowsAll: true,
		Crawlers:  make(map[string]Access, len(names)),
		order:     names,
	}

	switch doc.State {
	case RobotsNotFound:
		for _, name := range names {
			result.Crawlers[name] = AccessAllowed
		}
		return result
	case RobotsUnavailable:
		result.Error = doc.Note
		if result.Error == "" {
			result.Error = "could not fetch robots.txt"
		}
		for _, name := range names {
			result.Crawlers[name] = AccessUnknown
		}
		return result
	}

	result.Exists = true
	groups := parseRobotsGroups(doc.Body)

	for _, name := range names {
		rules, ok := groups[strings.ToLower(name)]
		if !ok {
			rules, ok = groups["*"]
		}
		if ok && blocksRoot(rules) {
			result.Crawlers[name] = AccessBlocked
			result.BlockedCount++
			continue
		}
		result.Crawlers[name] = AccessAllowed
	}
	result.AllowsAll = result.BlockedCount == 0
	return result
}

// parseRobotsGroups maps each lowercased agent to its directives. An agent
// seen on a user-agent line always gets an entry, even with no directives.
func parseRobotsGroups(body string) map[string][]robotsDirective {
	groups := make(map[string][]robotsDirective)
	active := ""
	hasActive := false

	for _, line := range strings.Split(strings.ToLower(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "user-agent:"):
			active = fieldValue(line)
			hasActive = true
			if _, ok := groups[active]; !ok {
				groups[active] = nil
			}
		case strings.HasPrefix(line, "disallow:") && hasActive:
			groups[active] = append(groups[active], robotsDirective{disallow: true, path: fieldValue(line)})
		case strings.HasPrefix(line, "allow:") && hasActive:
			groups[active] = append(groups[active], robotsDirective{path: fieldValue(line)})
		}
	}
	return groups
}

func fieldValue(line string) string {
	_, value, _ := strings.Cut(line, ":")
	return strings.TrimSpace(value)
}

func blocksRoot(rules []robotsDirective) bool {
	for _, d := range rules {
		if d.disallow && (d.path == "/" || d.path == "") {
			return true
		}
	}
	return false
}

func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
