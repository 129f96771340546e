package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Placeholders a custom analysis prompt must contain
const (
	PromptPlaceholderCV = "{{CV}}"
	PromptPlaceholderJD = "{{JD}}"
)

// loadPrompt resolves the analysis prompt override. A file takes precedence over the inline value.
func (c *Config) loadPrompt() error {
	if c.AI.PromptFile != "" {
		content, err := loadPromptFromFile(c.AI.PromptFile)
		if err != nil {
			return err
		}
		if c.AI.Prompt != "" {
			log.Println("[CONFIG] Both ai.prompt and ai.promptFile set, using the file")
		}
		c.AI.Prompt = content
	}

	if c.AI.Prompt == "" {
		log.Println("[CONFIG] Using built-in analysis prompt")
		return nil
	}

	return validatePromptTemplate(c.AI.Prompt)
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for prompt file '%s': %w", filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("prompt file not found: %s", absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}

	log.Printf("[CONFIG] Successfully loaded analysis prompt from file: %s (%d characters)",
		absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptTemplate checks that both documents have a place in the template
func validatePromptTemplate(template string) error {
	var missing []string
	for _, placeholder := range []string{PromptPlaceholderCV, PromptPlaceholderJD} {
		if !strings.Contains(template, placeholder) {
			missing = append(missing, placeholder)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("prompt template is missing placeholders: %s", strings.Join(missing, ", "))
	}
	return nil
}
