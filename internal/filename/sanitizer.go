// Package filename provides file name normalization for worksheet entries
package filename

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultExtension is appended to worksheet file names that carry no
// recognized media extension.
const DefaultExtension = ".mp4"

// Sanitizer produces safe local file names. Worksheet names are honored
// verbatim apart from the default extension; CleanName and Normalize serve
// generated names, such as the fallback for a blank worksheet cell.
type Sanitizer interface {
	// CleanName strips filesystem-unsafe characters and folds diacritics,
	// preserving the operator's chosen words and case
	CleanName(name string) string

	// EnsureExtension appends ext when name has no extension at all
	EnsureExtension(name, ext string) string

	// Normalize applies CleanName and the default media extension
	Normalize(name string) string
}

// SanitizerOptions contains configuration options for the sanitizer
type SanitizerOptions struct {
	// MaxLength sets the maximum length for a cleaned name (default: 200)
	MaxLength int

	// DefaultName is used when the name is empty after cleaning (default: "untitled")
	DefaultName string
}

type sanitizer struct {
	maxLength   int
	defaultName string

	invalidCharsRegex   *regexp.Regexp
	multipleSpacesRegex *regexp.Regexp
}

// NewSanitizer creates a new Sanitizer with the given options
func NewSanitizer(options SanitizerOptions) Sanitizer {
	maxLength := options.MaxLength
	if maxLength <= 0 {
		maxLength = 200
	}

	defaultName := options.DefaultName
	if defaultName == "" {
		defaultName = "untitled"
	}

	return &sanitizer{
		maxLength:           maxLength,
		defaultName:         defaultName,
		invalidCharsRegex:   regexp.MustCompile(`[<>:"/\\|?*]`),
		multipleSpacesRegex: regexp.MustCompile(`\s+`),
	}
}

// CleanName strips filesystem-unsafe characters and folds diacritics
func (s *sanitizer) CleanName(name string) string {
	normalized := s.normalizeUnicode(name)

	// Path separators and other reserved characters become spaces so the
	// name can never escape the download root
	cleaned := s.invalidCharsRegex.ReplaceAllString(normalized, " ")

	singleSpaced := s.multipleSpacesRegex.ReplaceAllString(cleaned, " ")
	trimmed := strings.TrimSpace(singleSpaced)

	if trimmed == "" {
		return s.defaultName
	}

	if len(trimmed) > s.maxLength {
		trimmed = strings.TrimSpace(trimmed[:s.maxLength])
	}

	return trimmed
}

// normalizeUnicode removes diacritics and drops non-ASCII characters
func (s *sanitizer) normalizeUnicode(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, str)

	var cleaned strings.Builder
	for _, r := range result {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r)) {
			cleaned.WriteRune(r)
		} else if unicode.IsSpace(r) {
			cleaned.WriteRune(' ')
		}
	}

	return cleaned.String()
}

// EnsureExtension appends ext when name has no extension at all
func (s *sanitizer) EnsureExtension(name, ext string) string {
	if filepath.Ext(name) == "" {
		return name + ext
	}
	return name
}

// Normalize applies CleanName and the default media extension
func (s *sanitizer) Normalize(name string) string {
	return s.EnsureExtension(s.CleanName(name), DefaultExtension)
}
