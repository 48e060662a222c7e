// Package validate holds input validation shared by the domain services.
package validate

import (
	"strings"
)

// MissingFieldsError reports required input fields that were absent or blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Field pairs an input name with its submitted value.
type Field struct {
	Name  string
	Value string
}

// Required returns a *MissingFieldsError naming every field whose value is
// blank, or nil when all are present. Field order is preserved.
func Required(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &MissingFieldsError{Fields: missing}
}
