package session

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"auction-harvester/extraction"
)

// resultBlockSelector matches one entry of the result list.
const resultBlockSelector = "li.resultado-busqueda"

var blockElements = map[string]bool{
	"address": true, "article": true, "br": true, "dd": true, "div": true,
	"dl": true, "dt": true, "footer": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "ol": true, "p": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

var hiddenElements = map[string]bool{
	"head": true, "noscript": true, "script": true, "style": true, "template": true,
}

func visibleText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(n, &b)
	}
	return strings.Join(extraction.Lines(b.String()), "\n")
}

func writeText(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
		return
	case html.ElementNode:
		if hiddenElements[node.Data] {
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.Data]
	if block {
		b.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		writeText(child, b)
	}
	if block {
		b.WriteByte('\n')
	}
}

func toPageContent(pageURL *url.URL, doc *goquery.Document) *extraction.PageContent {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	content := &extraction.PageContent{
		URL:   pageURL.String(),
		Text:  visibleText(root.Nodes...),
		Links: anchors(root),
	}

	resultBlocks(doc).Each(func(_ int, s *goquery.Selection) {
		content.Blocks = append(content.Blocks, extraction.Block{
			Text:  visibleText(s.Nodes...),
			Links: anchors(s),
		})
	})

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, visibleText(cell.Nodes...))
		})
		if len(cells) > 0 {
			content.Rows = append(content.Rows, extraction.Row{Cells: cells})
		}
	})
	return content
}

// resultBlocks returns the result list entries. Pages without the usual
// markup fall back to the largest elements that hold exactly one identity.
func resultBlocks(doc *goquery.Document) *goquery.Selection {
	blocks := doc.Find(resultBlockSelector)
	if blocks.Length() > 0 {
		return blocks
	}
	return doc.Find("li, div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if identityCount(s) != 1 {
			return false
		}
		parent := s.Parent()
		return parent.Length() == 0 || goquery.NodeName(parent) == "body" || identityCount(parent) != 1
	})
}

func identityCount(s *goquery.Selection) int {
	seen := make(map[string]struct{})
	for _, id := range extraction.IdentityPattern.FindAllString(s.Text(), -1) {
		seen[id] = struct{}{}
	}
	return len(seen)
}

func anchors(s *goquery.Selection) []extraction.Link {
	var links []extraction.Link
	s.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		links = append(links, extraction.Link{
			Text: visibleText(a.Nodes...),
			Href: strings.TrimSpace(a.AttrOr("href", "")),
		})
	})
	return links
}

// findLink returns the href of the first anchor whose text starts with label.
func findLink(doc *goquery.Document, label string) (string, bool) {
	var href string
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.Join(strings.Fields(a.Text()), " ")
		if !strings.HasPrefix(text, label) {
			return true
		}
		href = strings.TrimSpace(a.AttrOr("href", ""))
		found = true
		return false
	})
	return href, found
}
