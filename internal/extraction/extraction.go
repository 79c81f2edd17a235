package extraction

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// InternalLinkSelector matches root-relative anchors, the links a
// single-page app routes internally.
const InternalLinkSelector = `a[href^="/"]`

// Extractor finds navigable links in a rendered document
type Extractor struct {
	Selector string
}

// NewExtractor creates a link extractor for internal links
func NewExtractor() *Extractor {
	return &Extractor{Selector: InternalLinkSelector}
}

// InternalLinks returns the absolute, de-duplicated URLs of the internal links
// in html, in document order. Links resolving to another origin than base
// (e.g. protocol-relative "//cdn...") are skipped.
func (e *Extractor) InternalLinks(html, base string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find(e.Selector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Scheme != baseURL.Scheme || abs.Host != baseURL.Host {
			return
		}
		link := abs.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links, nil
}
