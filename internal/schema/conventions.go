package schema

import (
	"fmt"
	"regexp"
	"strings"
)

var wikiLinkRe = regexp.MustCompile(`^\[\[(.+)\]\]$`)

// wikiLinkFields lists the frontmatter fields holding wiki-links and whether
// each holds a list.
var wikiLinkFields = []struct {
	name string
	list bool
}{
	{"parent_plan", false},
	{"related_issues", true},
	{"related_notes", true},
}

// WikiLinkFields returns the names of frontmatter fields that hold wiki-links.
func WikiLinkFields() []string {
	out := make([]string, len(wikiLinkFields))
	for i, f := range wikiLinkFields {
		out[i] = f.name
	}
	return out
}

type typeKey struct {
	noteType, subtype string
}

// typeTags maps (type, subtype) to the tag a note of that kind must carry.
// An empty subtype is the fallback for the type.
var typeTags = map[typeKey]string{
	{"research", "component"}:      "research/component",
	{"research", "issue"}:          "research/issue",
	{"research", "pr"}:             "research/pr",
	{"research", "issue-roundup"}:  "research/issue-roundup",
	{"research", "design-problem"}: "research/design-problem",
	{"research", "design-spec"}:    "research/design-spec",
	{"research", "dependency"}:     "research/dependency",
	{"plan", ""}:                   "plan",
	{"plan-section", ""}:           "plan/section",
	{"concept", ""}:                "concept",
	{"moc", ""}:                    "moc",
	{"project", ""}:                "project",
}

// validateWikiLinks catches "[[   ]]" values, which the schema pattern lets
// through.
func validateWikiLinks(data map[string]any) []string {
	var errs []string
	for _, f := range wikiLinkFields {
		raw, ok := data[f.name]
		if !ok || raw == nil {
			continue
		}
		var values []any
		if f.list {
			values, _ = raw.([]any)
		} else {
			values = []any{raw}
		}
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			m := wikiLinkRe.FindStringSubmatch(s)
			if m == nil || strings.TrimSpace(m[1]) != "" {
				continue
			}
			loc := f.name
			if f.list {
				loc = fmt.Sprintf("%s[%d]", f.name, i)
			}
			errs = append(errs, fmt.Sprintf("%s: wiki link has whitespace-only inner text: '%s'", loc, s))
		}
	}
	return errs
}

// tagMatches is hierarchy aware: "plan/followup" satisfies "plan".
func tagMatches(actual, expected string) bool {
	return actual == expected || strings.HasPrefix(actual, expected+"/")
}

func validateTagCoherence(data map[string]any) []string {
	rawTags, ok := data["tags"].([]any)
	if !ok {
		return nil
	}
	noteType, _ := data["type"].(string)
	if noteType == "" {
		return nil
	}
	subtype, _ := data["subtype"].(string)

	expected, ok := typeTags[typeKey{noteType, subtype}]
	if !ok {
		expected, ok = typeTags[typeKey{noteType, ""}]
	}
	if !ok {
		return nil
	}

	tags := make([]string, 0, len(rawTags))
	for _, t := range rawTags {
		if s, ok := t.(string); ok {
			if tagMatches(s, expected) {
				return nil
			}
			tags = append(tags, s)
		}
	}

	msg := fmt.Sprintf("tags: expected '%s' tag for type=%s", expected, noteType)
	if subtype != "" {
		msg += ", subtype=" + subtype
	}
	msg += fmt.Sprintf(" but tags are %q", tags)
	return []string{msg}
}
