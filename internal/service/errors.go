package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
)

// NonFieldErrors keys messages that are not about a single input field.
const NonFieldErrors = "non_field_errors"

var (
	ErrNotFound        = db.ErrNotFound
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError lists messages per offending input field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns e, or nil when nothing was added.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// cleanName trims name and records a problem under field when it is blank
// or too long.
func cleanName(verr *ValidationError, field, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		verr.Add(field, "This field may not be blank.")
	case len([]rune(name)) > maxNameLength:
		verr.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	return name
}

const maxNameLength = 255
