package extraction

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"auction-harvester/utils"
)

// Stub is an auction as seen on a results page, before detail enrichment.
type Stub struct {
	Identity      string
	Category      string
	Authority     string
	CaseReference string
	Status        string
	Description   string
	DetailURL     string
	ExtractedAt   time.Time
}

// ListingResult holds the stubs of one results page. Errors counts blocks
// that carried an identity but could not be turned into a stub; Skipped
// counts blocks without any identity.
type ListingResult struct {
	Stubs   []Stub
	Errors  int
	Skipped int
	Issues  []string
}

const (
	detailLinkMarker  = "detalleSubasta"
	minDescriptionLen = 20
	minUpperRatio     = 0.8
)

var (
	IdentityPattern = regexp.MustCompile(`SUB-[A-Z]+-\d+-\d+`)
	totalResults    = regexp.MustCompile(`Resultados\s+\d+\s+a\s+\d+\s+de\s+([\d.]+)`)
	caseReference   = regexp.MustCompile(`Expediente:\s*(.+)`)
	statusLabel     = regexp.MustCompile(`Estado:\s*(.+)`)
	labeledLine     = regexp.MustCompile(`^[\p{L} ]{2,30}:`)

	authorityPrefixes = []string{
		"JUZGADO", "Juzgado", "NOTARÍA", "NOTARIA", "Notaría", "Notaria",
		"AGENCIA", "Agencia", "UNIDAD", "Unidad", "DEPENDENCIA", "Dependencia",
		"TRIBUNAL", "Tribunal", "AYUNTAMIENTO", "Ayuntamiento", "TESORERÍA", "Tesorería",
	}
)

// ExtractTotalResults reads N from the "Resultados x a y de N" header.
func ExtractTotalResults(content *PageContent) (int, bool) {
	if content == nil {
		return 0, false
	}
	m := totalResults.FindStringSubmatch(content.Text)
	if m == nil {
		return 0, false
	}
	total, err := strconv.Atoi(strings.ReplaceAll(m[1], ".", ""))
	if err != nil {
		return 0, false
	}
	return total, true
}

// ExtractListingPage collects one stub per block carrying an identity.
func ExtractListingPage(content *PageContent, now time.Time) (ListingResult, error) {
	if content == nil {
		return ListingResult{}, ErrPageUnavailable
	}

	var result ListingResult
	seen := make(map[string]struct{})
	for i, block := range content.Blocks {
		identity := IdentityPattern.FindString(block.Text)
		if identity == "" {
			result.Skipped++
			continue
		}
		if _, dup := seen[identity]; dup {
			continue
		}

		stub, err := extractStub(block, identity, content.URL, now)
		if err != nil {
			result.Errors++
			result.Issues = append(result.Issues, fmt.Sprintf("block %d (%s): %v", i, identity, err))
			continue
		}
		seen[identity] = struct{}{}
		result.Stubs = append(result.Stubs, stub)
	}
	return result, nil
}

func extractStub(block Block, identity, pageURL string, now time.Time) (Stub, error) {
	lines := Lines(block.Text)

	stub := Stub{
		Identity:    identity,
		Category:    utils.Classify(identity),
		ExtractedAt: now,
	}
	stub.Authority = findAuthority(lines)
	if m := caseReference.FindStringSubmatch(block.Text); m != nil {
		stub.CaseReference = normalizeSpace(firstLine(m[1]))
	}
	if m := statusLabel.FindStringSubmatch(block.Text); m != nil {
		stub.Status = normalizeSpace(firstLine(m[1]))
	}
	stub.Description = findDescription(lines, identity, stub.Authority)

	detailURL, err := findDetailURL(block.Links, pageURL)
	if err != nil {
		return Stub{}, err
	}
	stub.DetailURL = detailURL
	return stub, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func findAuthority(lines []string) string {
	for _, line := range lines {
		for _, prefix := range authorityPrefixes {
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}
	return ""
}

// findDescription picks the longest line of predominantly upper-case text,
// ignoring the identity, authority and "Label: value" lines.
func findDescription(lines []string, identity, authority string) string {
	best, bestLen := "", 0
	for _, line := range lines {
		if strings.Contains(line, identity) || line == authority || labeledLine.MatchString(line) {
			continue
		}
		n := utf8.RuneCountInString(line)
		if n < minDescriptionLen || n <= bestLen {
			continue
		}
		if upperRatio(line) >= minUpperRatio {
			best, bestLen = line, n
		}
	}
	return best
}

func upperRatio(s string) float64 {
	var letters, upper int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func findDetailURL(links []Link, pageURL string) (string, error) {
	for _, link := range links {
		if !strings.Contains(link.Href, detailLinkMarker) {
			continue
		}
		return resolveURL(pageURL, link.Href)
	}
	return "", nil
}

func resolveURL(base, href string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse detail link: %w", err)
	}
	if ref.IsAbs() || base == "" {
		return ref.String(), nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
