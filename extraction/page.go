// Package extraction turns rendered source pages into auction records.
//
// Every extractor works on PageContent, a normalized view of a page (full
// text, text blocks with their links, and table rows), and every field is
// looked up independently so a heuristic that stops matching affects only
// its own field.
package extraction

import (
	"errors"
	"strings"
)

// ErrPageUnavailable is returned when there is no page content to extract from.
var ErrPageUnavailable = errors.New("page content unavailable")

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Block is a self-contained unit of text on a page, e.g. one result entry.
type Block struct {
	Text  string `json:"text"`
	Links []Link `json:"links"`
}

// Row is a table row as the visible text of its cells.
type Row struct {
	Cells []string `json:"cells"`
}

type PageContent struct {
	URL    string  `json:"url"`
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks"`
	Rows   []Row   `json:"rows"`
	Links  []Link  `json:"links"`
}

// Empty reports whether the page carries nothing extractable.
func (p *PageContent) Empty() bool {
	return p == nil || (strings.TrimSpace(p.Text) == "" && len(p.Rows) == 0 && len(p.Blocks) == 0)
}

// Lookup returns the cell following the first cell that starts with label.
// The second return value reports whether such a row exists at all.
func (p *PageContent) Lookup(label string) (string, bool) {
	if p == nil {
		return "", false
	}
	for _, row := range p.Rows {
		for i, cell := range row.Cells {
			if !strings.HasPrefix(normalizeSpace(cell), label) {
				continue
			}
			if i+1 < len(row.Cells) {
				return normalizeSpace(row.Cells[i+1]), true
			}
			return "", true
		}
	}
	return "", false
}

// Lines returns the trimmed, non-empty lines of text.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = normalizeSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
