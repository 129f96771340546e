package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jobmatch/internal/errors"
	"jobmatch/internal/extract"
	"jobmatch/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
}

// NewFileProcessor creates a file processor; maxSize of zero disables the size check
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NopLogger()
	}
	return &FileProcessor{logger: logger, maxSize: maxSize}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return string(content), nil
}

// ReadResume extracts resume text from a PDF, DOCX or plain text file
func (fp *FileProcessor) ReadResume(filename string) (string, error) {
	text, err := extract.FromFile(filename, fp.maxSize)
	if err != nil {
		return "", err
	}
	fp.logger.Debug("Resume loaded", "filename", filename, "chars", len([]rune(text)))
	return text, nil
}

// ResolveArgument returns value itself, or the content of the named file when
// value starts with "@"
func (fp *FileProcessor) ResolveArgument(value string) (string, error) {
	name, ok := strings.CutPrefix(value, "@")
	if !ok {
		return value, nil
	}
	if !utils.IsTextFile(name) {
		fp.logger.Warn("File may not be a text file", "filename", name)
	}
	return fp.ReadFile(name)
}

// ReadLines reads non-empty lines, trimming whitespace
func (fp *FileProcessor) ReadLines(filename string) ([]string, error) {
	content, err := fp.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var lines []string
	for line := range strings.Lines(content) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
