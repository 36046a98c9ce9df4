package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/finkit/internal/core/domain"
)

// Headings may be wrapped in markdown emphasis, table pipes or heading
// markers after HTML conversion ("**Item 1A.** Risk Factors", "| Item 7 |").
var (
	itemHeading = regexp.MustCompile(`(?i)^[\s>#*_|]*item\s+(\d{1,2}[a-c]?)\b`)
	partHeading = regexp.MustCompile(`(?i)^[\s>#*_|]*part\s+(iv|i{1,3})\b`)
)

const partItemSeparators = " \t.,:;*_|-\u2013\u2014"

type heading struct {
	line  int
	key   string
	title string
}

// SplitSections splits filing text on item headings. For 10-Q forms item
// keys are prefixed with their part ("part_ii_item_1a"). When an item
// heading appears more than once (table of contents, cross references) the
// occurrence with the longest body wins. Text without headings yields a
// single SectionFull section.
func SplitSections(text, form string) []domain.Section {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	withParts := strings.EqualFold(strings.TrimSpace(form), domain.FormQuarterly)

	var heads []heading
	part := ""
	for i, line := range lines {
		if loc := partHeading.FindStringSubmatchIndex(line); loc != nil && !itemHeading.MatchString(line) {
			part = strings.ToLower(line[loc[2]:loc[3]])
			// "PART I - ITEM 1. FINANCIAL STATEMENTS" opens the item as well.
			rest := strings.TrimLeft(line[loc[1]:], partItemSeparators)
			if !itemHeading.MatchString(rest) {
				if withParts {
					// Part lines end the previous item's body.
					heads = append(heads, heading{line: i})
				}
				continue
			}
			line = rest
		}
		m := itemHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := "item_" + strings.ToLower(m[1])
		if withParts && part != "" {
			key = "part_" + part + "_" + key
		}
		heads = append(heads, heading{line: i, key: key, title: cleanTitle(line)})
	}

	type candidate struct {
		section domain.Section
		line    int
	}
	best := make(map[string]candidate)
	for i, h := range heads {
		if h.key == "" {
			continue
		}
		end := len(lines)
		if i+1 < len(heads) {
			end = heads[i+1].line
		}
		body := strings.TrimSpace(strings.Join(lines[h.line+1:end], "\n"))
		if prev, ok := best[h.key]; ok && len(prev.section.Content) >= len(body) {
			continue
		}
		best[h.key] = candidate{
			section: domain.Section{Key: h.key, Title: h.title, Content: body},
			line:    h.line,
		}
	}

	if len(best) == 0 {
		return []domain.Section{{
			Key:     domain.SectionFull,
			Title:   "Full document",
			Content: strings.TrimSpace(text),
		}}
	}

	cands := make([]candidate, 0, len(best))
	for _, c := range best {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].line < cands[j].line })

	sections := make([]domain.Section, len(cands))
	for i, c := range cands {
		sections[i] = c.section
	}
	return sections
}

func cleanTitle(line string) string {
	line = strings.NewReplacer("**", "", "__", "", "|", " ").Replace(line)
	line = strings.Trim(line, " \t#>*_")
	return strings.Join(strings.Fields(line), " ")
}
