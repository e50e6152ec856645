package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Placeholder is replaced with the transcript when rendering a template.
const Placeholder = "{{text}}"

var ErrTemplateNotFound = errors.New("prompt template not found")

//go:embed templates/*.md
var defaultTemplates embed.FS

// DefaultTemplates returns the built-in prompt templates.
func DefaultTemplates() fs.FS {
	templates, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		panic(err)
	}

	return templates
}

// Store renders prompt templates from a read-only file system.
type Store struct {
	FS fs.FS
}

// Render loads the named template and substitutes every Placeholder with the given text verbatim.
// The template is read on every call so that changes apply without restart.
func (s *Store) Render(name, text string) (string, error) {
	b, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, name, err)
	}

	return strings.ReplaceAll(string(b), Placeholder, text), nil
}
