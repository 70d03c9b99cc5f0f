package train

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boardsweep/boardsweep/domain"
)

// Grouping contract defaults. The title pattern is part of the external
// naming convention for release trains and must stay stable across runs;
// overriding it is a configuration-level decision.
const (
	DefaultTitlePattern      = `(?i)\brelease\s+train\b\s*[-:#]?\s*([a-z0-9][a-z0-9._-]*)`
	DefaultParentTitleFormat = "Release Train %s"
)

// Group represents the backlog items belonging to one release train
type Group struct {
	Key   string
	Items []domain.WorkItem
}

// Grouper derives stable release-train group keys from work item titles
type Grouper struct {
	pattern           *regexp.Regexp
	parentTitleFormat string
}

// NewGrouper compiles the title pattern and validates the parent title
// format. Empty arguments select the defaults. The pattern must contain a
// capture group for the train identifier.
func NewGrouper(titlePattern, parentTitleFormat string) (*Grouper, error) {
	if titlePattern == "" {
		titlePattern = DefaultTitlePattern
	}
	if parentTitleFormat == "" {
		parentTitleFormat = DefaultParentTitleFormat
	}

	pattern, err := regexp.Compile(titlePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid title pattern: %w", err)
	}
	if pattern.NumSubexp() < 1 {
		return nil, fmt.Errorf("title pattern must capture the train identifier: %s", titlePattern)
	}
	if !strings.Contains(parentTitleFormat, "%s") {
		return nil, fmt.Errorf("parent title format must contain %%s: %s", parentTitleFormat)
	}

	return &Grouper{pattern: pattern, parentTitleFormat: parentTitleFormat}, nil
}

// GroupKey extracts the normalized train key from a title. Differently cased
// or spaced mentions of the same train collapse to one key.
func (g *Grouper) GroupKey(title string) (string, bool) {
	m := g.pattern.FindStringSubmatch(title)
	if m == nil {
		return "", false
	}
	key := strings.ToUpper(strings.TrimSpace(m[1]))
	if key == "" {
		return "", false
	}
	return key, true
}

// Group partitions items into release trains by title. Items whose titles
// carry no train marker are excluded. Groups appear in the order their key
// is first seen; items within a group keep input order.
func (g *Grouper) Group(items []domain.WorkItem) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)

	for _, item := range items {
		key, ok := g.GroupKey(item.Title)
		if !ok {
			continue
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// ParentTitle renders the canonical aggregate-parent title for a group key
func (g *Grouper) ParentTitle(key string) string {
	return fmt.Sprintf(g.parentTitleFormat, key)
}
