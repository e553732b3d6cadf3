package richtext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed is the sentinel wrapped by StructuralError.
var ErrMalformed = errors.New("richtext: malformed structured text")

// Issue is a single schema violation.
type Issue struct {
	Location string
	Message  string
}

// StructuralError reports a structured-text value whose shape cannot be walked.
type StructuralError struct {
	FieldPath string
	Issues    []Issue
	Cause     error
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformed.Error())
	if e.FieldPath != "" {
		b.WriteString(" at ")
		b.WriteString(e.FieldPath)
	}
	if len(e.Issues) > 0 {
		parts := make([]string, 0, len(e.Issues))
		for _, issue := range e.Issues {
			location := issue.Location
			if location == "" {
				location = "#"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *StructuralError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Cause}
}

const treeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["root"],
  "properties": {
    "root": {"type": "object"}
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("richtext.json", bytes.NewReader([]byte(treeSchema))); err != nil {
		return nil, err
	}
	return compiler.Compile("richtext.json")
})

// Validate checks the structured-text envelope: value is a mapping whose root
// is a mapping. Nodes below the root are not checked; the walker skips the
// ones it cannot read.
func Validate(value any) error {
	schema, err := compiledSchema()
	if err != nil {
		return &StructuralError{Cause: err}
	}

	instance, err := normalize(value)
	if err != nil {
		return &StructuralError{Cause: err}
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &StructuralError{Issues: collectIssues(validationErr), Cause: err}
		}
		return &StructuralError{Cause: err}
	}
	return nil
}

// normalize converts Go-native values into the JSON data model the schema
// validator expects.
func normalize(value any) (any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
