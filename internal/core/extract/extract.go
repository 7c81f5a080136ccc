package extract

import (
	"bytes"
	"os"
	"strings"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"docuchat/internal/core/errs"
)

// PDF extracts the plain text of every page in page order, joined with a
// blank line, and returns the page count. A corrupt or unreadable file is an
// extraction error; a valid PDF with no text yields empty text.
func PDF(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, errs.Extraction(err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, errs.Extraction(err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n\n"), total, nil
}

// Image runs OCR over an image artifact and returns the recognized text.
func Image(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Extraction(err)
	}
	defer f.Close()

	res, err := docconv.Convert(f, docconv.MimeTypeByExtension(path), false)
	if err != nil {
		return "", errs.Extraction(err)
	}
	return res.Body, nil
}

// HTML parses raw HTML and returns its visible text content and the <title>.
func HTML(raw []byte) (text, title string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", "", errs.Extraction(err)
	}
	title = strings.TrimSpace(doc.Find("title").First().Text())

	// Markup that never renders as text.
	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}
	return strings.TrimSpace(text), title, nil
}
