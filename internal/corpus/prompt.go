package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/propcheck/internal/ir"
)

// Mode selects which placeholders a prompt template is filled with.
type Mode string

const (
	// ModeDescription fills {code} and {property_desc}.
	ModeDescription Mode = "description"
	// ModeSpecification fills {code} and {specification}.
	ModeSpecification Mode = "specification"
)

// Template placeholders.
const (
	PlaceholderCode          = "{code}"
	PlaceholderDescription   = "{property_desc}"
	PlaceholderSpecification = "{specification}"
)

// LoadPromptTemplate reads the template file from dir.
func LoadPromptTemplate(dir, file string) (string, error) {
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt template %s: %w", path, ErrNotFound)
		}
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	return string(data), nil
}

// Prompter fills a template with the contract source and property text of
// a task.
type Prompter struct {
	Contract *Contract
	Template string
	Mode     Mode
}

// Prompt builds the initial prompt for task.
func (p *Prompter) Prompt(task ir.Task) (string, error) {
	code, err := p.Contract.Code(task.Version)
	if err != nil {
		return "", err
	}

	if p.Mode == ModeSpecification {
		spec, err := p.Contract.Specification(task.Property)
		if err != nil {
			return "", err
		}
		return strings.NewReplacer(
			PlaceholderCode, code,
			PlaceholderSpecification, spec,
		).Replace(p.Template), nil
	}

	desc, err := p.Contract.PropertyDescription(task.Property)
	if err != nil {
		return "", err
	}
	return strings.NewReplacer(
		PlaceholderCode, code,
		PlaceholderDescription, desc,
	).Replace(p.Template), nil
}
