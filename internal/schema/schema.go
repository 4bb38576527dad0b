// Package schema validates request bodies against the JSON schemas embedded
// in schemas/. Top level schemas live in schemas/, shared definitions they
// reference in schemas/refs/.
package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json schemas/refs/*.json
var embedded embed.FS

const base = "https://postboard.dev/schemas/"

// Schema IDs of the request bodies.
const (
	Signup     = base + "signup.json"
	Login      = base + "login.json"
	UserUpdate = base + "user-update.json"
	Post       = base + "post.json"
	PostUpdate = base + "post-update.json"
	Comment    = base + "comment.json"
)

// ValidationError lists every violation, sorted.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "the document is not valid: " + strings.Join(e.Messages, "; ")
}

type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// New compiles the embedded request schemas.
func New() (*Validator, error) {
	sub, err := fs.Sub(embedded, "schemas")
	if err != nil {
		return nil, err
	}
	return NewFromFS(sub)
}

func NewFromFS(fsys fs.FS) (*Validator, error) {
	schemas, err := readJSONFiles(fsys, ".")
	if err != nil {
		return nil, err
	}
	refs, err := readJSONFiles(fsys, "refs")
	if err != nil {
		return nil, err
	}
	return NewValidator(schemas, refs)
}

func readJSONFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read dir %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := e.Name()
		if dir != "." {
			name = dir + "/" + name
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("cannot read file '%s': %w", name, err)
		}
		out = append(out, string(b))
	}
	return out, nil
}

// NewValidator compiles schemas, each of which may reference any of refs by
// $id.
func NewValidator(schemas, refs []string) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema)}
	for _, str := range schemas {
		var head struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal([]byte(str), &head); err != nil {
			return nil, fmt.Errorf("parse error '%v' in schema: '%s'", err, str)
		}
		if head.ID == "" {
			return nil, fmt.Errorf("schema does not contain $id: '%s'", str)
		}
		sl := gojsonschema.NewSchemaLoader()
		for _, ref := range refs {
			if err := sl.AddSchemas(gojsonschema.NewStringLoader(ref)); err != nil {
				return nil, fmt.Errorf("cannot add ref: %w", err)
			}
		}
		compiled, err := sl.Compile(gojsonschema.NewStringLoader(str))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s: %w", head.ID, err)
		}
		v.schemas[head.ID] = compiled
	}
	return v, nil
}

func (v *Validator) HasSchema(id string) bool {
	_, ok := v.schemas[id]
	return ok
}

// Validate checks body against the schema id. Violations come back as an
// InvalidArgument error whose message is the first violation.
func (v *Validator) Validate(body []byte, id string) error {
	s, ok := v.schemas[id]
	if !ok {
		return fmt.Errorf("there is no schema %s", id)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return apperr.BadRequest("request body is required")
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperr.Wrap(apperr.InvalidArgument, err, "invalid JSON body")
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{}
	for _, e := range result.Errors() {
		verr.Messages = append(verr.Messages, describe(e))
	}
	sort.Strings(verr.Messages)
	return apperr.Wrap(apperr.InvalidArgument, verr, verr.Messages[0])
}

func describe(e gojsonschema.ResultError) string {
	switch e.Type() {
	case "required":
		return fmt.Sprintf("%q is required", e.Details()["property"])
	case "additional_property_not_allowed":
		return fmt.Sprintf("%q is not allowed", e.Details()["property"])
	}
	return fmt.Sprintf("%q %s", e.Field(), e.Description())
}
