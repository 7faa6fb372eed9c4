package upstream

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Schema names of the embedded backend response contracts.
const (
	SchemaExperience        = "experience"
	SchemaExperiencePage    = "experience_page"
	SchemaExperienceList    = "experience_list"
	SchemaHighlight         = "highlight"
	SchemaHighlightPage     = "highlight_page"
	SchemaHighlightsGrouped = "highlights_grouped"
	SchemaRequestAdminPage  = "request_admin_page"
	SchemaReservationGroup  = "reservation_group"
	SchemaReservationGroups = "reservation_group_list"
	SchemaUserPage          = "user_page"
	SchemaListEnvelope      = "list_envelope"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

// LoadSchema returns a compiled embedded schema by name.
func LoadSchema(name string) (*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas, schemasErr = compileSchemas()
	})
	if schemasErr != nil {
		return nil, schemasErr
	}
	schema, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("unknown response schema %q", name)
	}
	return schema, nil
}

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	entries, err := schemaFiles.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		data, err := schemaFiles.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if err := compiler.AddResource(schemaURL(name), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		names = append(names, name)
	}

	compiled := make(map[string]*jsonschema.Schema, len(names))
	for _, name := range names {
		schema, err := compiler.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		compiled[name] = schema
	}
	return compiled, nil
}

func schemaURL(name string) string {
	return "https://promata.local/schemas/" + name + ".json"
}

// Validate checks body against schema and decodes it into a generic value. Failures are
// reported as *SchemaError carrying url and the offending payload.
func Validate(url string, body []byte, schema *jsonschema.Schema) (any, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &SchemaError{URL: url, Payload: invalidPayload(body), Issues: []string{"body is not valid JSON: " + err.Error()}}
	}
	if schema == nil {
		return decoded, nil
	}
	if err := schema.Validate(decoded); err != nil {
		return nil, &SchemaError{URL: url, Payload: json.RawMessage(body), Issues: schemaIssues(err)}
	}
	return decoded, nil
}

// SafeGet fetches path, validates the body against the named schema and returns it decoded
// as a generic value ready for the dto mappers.
func (c *Client) SafeGet(ctx context.Context, path, schemaName string, opts ...Option) (any, error) {
	schema, err := LoadSchema(schemaName)
	if err != nil {
		return nil, err
	}
	body, err := c.Get(ctx, path, opts...)
	if err != nil {
		return nil, err
	}
	decoded, err := Validate(c.resolve(path), body, schema)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Str("schema", schemaName).Msg("backend response failed schema validation")
		return nil, err
	}
	return decoded, nil
}

// SafeCall fetches path, validates it against the named schema and decodes into T.
func SafeCall[T any](ctx context.Context, c *Client, path, schemaName string, opts ...Option) (T, error) {
	var out T
	decoded, err := c.SafeGet(ctx, path, schemaName, opts...)
	if err != nil {
		return out, err
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(encoded, &out); err != nil {
		return out, &SchemaError{URL: c.resolve(path), Payload: json.RawMessage(encoded), Issues: []string{err.Error()}}
	}
	return out, nil
}

func schemaIssues(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	issues := []string{}
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			location := v.InstanceLocation
			if location == "" {
				location = "/"
			}
			issues = append(issues, location+": "+v.Message)
			return
		}
		for _, cause := range v.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return issues
}

func invalidPayload(body []byte) json.RawMessage {
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}
