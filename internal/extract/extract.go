// Package extract turns uploaded resumes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"jobmatch/internal/errors"
	"jobmatch/internal/utils"
)

// FromBytes extracts text based on the file name's extension. Names other than
// .pdf, .docx or a text extension are rejected before any parsing happens.
func FromBytes(filename string, data []byte) (string, error) {
	switch {
	case IsPDFFilename(filename):
		return ExtractPDF(bytes.NewReader(data), int64(len(data)))
	case utils.IsDocxFile(filename):
		return ExtractDOCX(data)
	case utils.IsTextFile(filename):
		return string(data), nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFileType,
			fmt.Sprintf("unsupported file type %q", utils.GetFileExtension(filename)), nil)
	}
}

// IsPDFFilename reports whether an upload name has a .pdf extension, in any case
func IsPDFFilename(name string) bool {
	return utils.IsPDFFile(name)
}

// FromFile reads and extracts a resume from disk
func FromFile(filename string, maxSize int64) (string, error) {
	if err := utils.ValidateInputFile(filename, maxSize); err != nil {
		return "", errors.NewValidationError(errors.ErrCodeFileNotReadable, "invalid input file", err)
	}

	f, err := os.Open(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot open %s", filename), err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot read %s", filename), err)
	}

	return FromBytes(filename, data)
}
