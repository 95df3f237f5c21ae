package ccwalker

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
	"golang.org/x/net/html"
)

// lineBreakTags are the elements after which a newline is appended to the
// visible-text accumulator, so that block boundaries survive into the
// extracted text.
var lineBreakTags = map[string]bool{
	"br":  true,
	"p":   true,
	"div": true,
	"li":  true,
}

// lemmaTokenPattern strips everything but letters, digits and whitespace
// before lemmatization.
var lemmaTokenPattern = regexp.MustCompile(`[^a-zA-Z0-9\s]`)

// ParsedPage holds everything extracted from one HTML document: visible
// text, title, description and outbound links.
type ParsedPage struct {
	Text        string
	Title       string
	HasTitle    bool
	Description string
	HasDesc     bool
	Links       []string
}

// ExtractPage walks the parsed document tree rooted at doc and produces a
// ParsedPage. pageURL is the page's own absolute URL, used as the base for
// resolving relative hrefs.
func ExtractPage(doc *html.Node, pageURL string) ParsedPage {
	var text strings.Builder
	extractVisibleText(doc, &text)

	title, hasTitle := extractTitle(doc)
	desc, hasDesc := extractDescription(doc)
	links := extractLinks(doc, pageURL)

	return ParsedPage{
		Text:        strings.TrimSpace(text.String()),
		Title:       title,
		HasTitle:    hasTitle,
		Description: desc,
		HasDesc:     hasDesc,
		Links:       links,
	}
}

// extractVisibleText is a depth-first traversal that concatenates text
// nodes in document order, skipping entire subtrees rooted at <script> or
// <style>, and appending a newline after recursing into one of
// lineBreakTags.
func extractVisibleText(n *html.Node, out *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if n.Data != "" {
			out.WriteString(n.Data)
		}
		return
	case html.ElementNode:
		tag := n.Data
		if tag == "script" || tag == "style" {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractVisibleText(c, out)
		}
		if lineBreakTags[tag] {
			out.WriteByte('\n')
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractVisibleText(c, out)
	}
}

// extractTitle returns the first descendant <title> element's first text
// child, found in pre-order.
func extractTitle(n *html.Node) (string, bool) {
	return firstTextOfElement(n, "title")
}

// extractDescription returns the first descendant element whose local name
// is literally "description", not <meta name="description" content="...">.
// Matching the element name is deliberate; changing it to read the meta tag
// would change which pages are ingestible.
func extractDescription(n *html.Node) (string, bool) {
	return firstTextOfElement(n, "description")
}

func firstTextOfElement(n *html.Node, tagName string) (string, bool) {
	if n.Type == html.ElementNode && n.Data == tagName {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				return c.Data, true
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text, ok := firstTextOfElement(c, tagName); ok {
			return text, true
		}
	}
	return "", false
}

// extractLinks collects every <a href=...> in document order, resolving
// each href against base. If resolution fails the raw href is kept.
// Duplicates are preserved.
func extractLinks(n *html.Node, base string) []string {
	baseURL, baseErr := url.Parse(base)

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				links = append(links, resolveLink(baseURL, baseErr, attr.Val))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return links
}

func resolveLink(base *url.URL, baseErr error, href string) string {
	if baseErr != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	resolved := base.ResolveReference(ref)
	return purell.NormalizeURL(resolved, purell.FlagsSafe|purell.FlagRemoveFragment)
}

// Lemmatize lowercases text, strips every character outside [A-Za-z0-9\s],
// splits on whitespace and substitutes each token through the lemma
// dictionary when present. The result retains duplicates; term-frequency
// counting happens downstream when pages are persisted.
func Lemmatize(text string, dict *LemmaDictionary) []string {
	cleaned := lemmaTokenPattern.ReplaceAllString(text, "")
	fields := strings.Fields(cleaned)
	lemmas := make([]string, len(fields))
	for i, tok := range fields {
		lemmas[i] = dict.Lookup(strings.ToLower(tok))
	}
	return lemmas
}

// ParsePageRecoverable runs ExtractPage inside a panic-recovery boundary so
// that a pathological document crashes only its own record, not the whole
// archive.
func ParsePageRecoverable(doc *html.Node, pageURL string) (result ParsedPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting page %s: %v", pageURL, r)
		}
	}()
	result = ExtractPage(doc, pageURL)
	return result, nil
}
