package fetcher

import (
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxTitleScan = 1 << 20

// pageTitle returns the normalized <title> text of an HTML file, or "" when
// the file is unreadable or has none.
func pageTitle(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(file, maxTitleScan))
	if err != nil {
		return ""
	}
	title := doc.Find("head title").First().Text()
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	return strings.Join(strings.Fields(title), " ")
}
