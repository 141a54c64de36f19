package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"SmartFeeds/internal/domain"
)

const (
	noiseSelector       = "script, style, noscript, iframe, svg, nav, footer, header, form"
	blockSelector       = "article, li, tr, p"
	defaultMaxItems     = 50
	defaultMinTitleLen  = 12
	defaultExcerptLimit = 1000
)

var excerptPolicy = bluemonday.UGCPolicy()

// ExtractOptions tunes candidate extraction from one page.
type ExtractOptions struct {
	SourceID     string
	Selector     string
	MaxItems     int
	MinTitleLen  int
	ExcerptLimit int
}

func (o *ExtractOptions) defaults() {
	if o.MaxItems <= 0 {
		o.MaxItems = defaultMaxItems
	}
	if o.MinTitleLen <= 0 {
		o.MinTitleLen = defaultMinTitleLen
	}
	if o.ExcerptLimit <= 0 {
		o.ExcerptLimit = defaultExcerptLimit
	}
}

// ExtractCandidates turns the links of a page into candidate items in document
// order. Navigation chrome is dropped, and anchors whose text is shorter than
// MinTitleLen are treated as controls rather than content.
func ExtractCandidates(page []byte, pageURL string, opts ExtractOptions) ([]domain.CandidateItem, error) {
	opts.defaults()

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	scope := doc.Find("body")
	if scope.Length() == 0 {
		scope = doc.Selection
	}
	if opts.Selector != "" {
		scope = doc.Find(opts.Selector)
		if scope.Length() == 0 {
			return nil, fmt.Errorf("selector %q matched nothing on %s", opts.Selector, pageURL)
		}
	}

	items := make([]domain.CandidateItem, 0)
	scope.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		link, ok := resolveLink(base, a.AttrOr("href", ""))
		if !ok {
			return true
		}

		title := collapseSpace(a.Text())
		if title == "" {
			title = collapseSpace(a.AttrOr("title", ""))
		}
		if utf8.RuneCountInString(title) < opts.MinTitleLen {
			return true
		}

		items = append(items, domain.CandidateItem{
			Title:      title,
			URL:        link,
			SourceID:   opts.SourceID,
			RawExcerpt: excerpt(a, opts.ExcerptLimit),
		})
		return len(items) < opts.MaxItems
	})

	return items, nil
}

func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""

	page := *base
	page.Fragment = ""
	if domain.NormalizeURL(abs.String()) == domain.NormalizeURL(page.String()) {
		return "", false
	}
	return abs.String(), true
}

// excerpt renders the nearest content block around an anchor as markdown.
func excerpt(a *goquery.Selection, limit int) string {
	block := a.Closest(blockSelector)
	if block.Length() == 0 {
		block = a.Parent()
	}

	raw, err := goquery.OuterHtml(block)
	if err != nil {
		return truncate(collapseSpace(block.Text()), limit)
	}

	md, err := htmltomarkdown.ConvertString(excerptPolicy.Sanitize(raw))
	if err != nil {
		return truncate(collapseSpace(block.Text()), limit)
	}
	return truncate(strings.TrimSpace(md), limit)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
