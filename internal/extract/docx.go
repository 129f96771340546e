package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"jobmatch/internal/errors"

	"github.com/nguyenthenguyen/docx"
)

// ExtractDOCX returns the paragraph text of a Word document body
func ExtractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeDocxExtraction, "could not parse DOCX", err)
	}
	defer func() { _ = doc.Close() }()

	text, err := documentText(doc.Editable().GetContent())
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeDocxExtraction, "could not read DOCX body", err)
	}
	return text, nil
}

// documentText walks WordprocessingML keeping w:t runs, one line per w:p
func documentText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
