package fetch

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Each source exposes one known container element holding the readable
// body. Extraction targets that container only: when it is absent the
// result is empty rather than a whole-document fallback, because a wrong
// container is worse than no content.

const (
	hkexContainer = "main"
	secContainer  = "div.main-content__main.page-layout-type--layout-details"
	hkmaContainer = "div.content-with-right-content.layout-press-release-detail.full-content-printer"
	hkmaWrapper   = "div.content-wrapper"
)

// ExtractHKEX returns the visible text of the page's main element with
// boilerplate (scripts, navigation, chrome) removed.
func ExtractHKEX(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	main := doc.Find(hkexContainer).First()
	if main.Length() == 0 {
		return "", nil
	}
	main.Find("script, style, nav, header, footer").Remove()
	return collapseText(main.Text()), nil
}

// ExtractSEC returns the text of the press-release detail container.
func ExtractSEC(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	container := doc.Find(secContainer).First()
	if container.Length() == 0 {
		return "", nil
	}
	return collapseText(container.Text()), nil
}

// ExtractHKMA returns the text of the press-release content wrapper nested
// inside the detail container.
func ExtractHKMA(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	wrapper := doc.Find(hkmaContainer).First().Find(hkmaWrapper).First()
	if wrapper.Length() == 0 {
		return "", nil
	}
	return collapseText(wrapper.Text()), nil
}

// ExtractFragment strips markup from an HTML fragment embedded in a JSON
// payload and returns its visible text.
func ExtractFragment(fragment string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}
	doc.Find("script, style").Remove()
	return collapseText(doc.Text()), nil
}

// collapseText trims every line and drops the blank ones, so extracted
// bodies come out as compact newline-separated paragraphs.
func collapseText(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
