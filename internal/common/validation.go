package common

import (
	"fmt"
	"slices"

	"jobmatch/internal/formatters"
)

// ValidateOutputFormat accepts a format that is both configured and has a formatter.
// An empty configured list allows every registered format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	allowed := GetSupportedFormats(supportedFormats)
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v", format, allowed)
}

// GetSupportedFormats filters the configured formats to those the registry can render
func GetSupportedFormats(supportedFormats []string) []string {
	registered := formatters.GlobalRegistry.GetSupportedFormats()
	if len(supportedFormats) == 0 {
		return registered
	}
	result := make([]string, 0, len(supportedFormats))
	for _, format := range supportedFormats {
		if slices.Contains(registered, format) {
			result = append(result, format)
		}
	}
	return result
}
