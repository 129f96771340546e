package extract

import (
	"fmt"
	"io"
	"strings"

	"jobmatch/internal/errors"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF concatenates the plain text of every non-empty page. A document
// without any extractable text is an error.
func ExtractPDF(r io.ReaderAt, size int64) (text string, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if p := recover(); p != nil {
			text = ""
			err = errors.NewValidationError(errors.ErrCodePDFExtraction,
				"could not parse PDF", fmt.Errorf("pdf reader panic: %v", p))
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodePDFExtraction, "could not parse PDF", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.NewValidationError(errors.ErrCodePDFExtraction,
				fmt.Sprintf("could not read PDF page %d", i), err)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pageText)
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.NewValidationError(errors.ErrCodePDFExtraction, "PDF contains no extractable text", nil)
	}
	return text, nil
}
