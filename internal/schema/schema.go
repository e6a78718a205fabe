// Package schema validates note frontmatter against a JSON Schema plus the
// vault's tag and wiki-link conventions.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed defaults/meta_schema.yml
	defaultSchema []byte
	//go:embed defaults/meta_tags.yml
	defaultTags []byte
)

// Validator checks frontmatter maps. It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
	tags   []string
}

// Load builds a Validator from a YAML JSON-Schema file and a YAML tag file
// whose top-level keys are the allowed tags. Empty paths select the
// built-in defaults.
func Load(schemaPath, tagsPath string) (*Validator, error) {
	schemaData, err := readOrDefault(schemaPath, defaultSchema)
	if err != nil {
		return nil, err
	}
	tagsData, err := readOrDefault(tagsPath, defaultTags)
	if err != nil {
		return nil, err
	}
	tags, err := ParseTags(tagsData)
	if err != nil {
		return nil, err
	}
	return New(schemaData, tags)
}

func readOrDefault(path string, def []byte) ([]byte, error) {
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return data, nil
}

// ParseTags returns the top-level keys of a tag file in document order.
func ParseTags(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse tags: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("schema: tags file must be a mapping")
	}
	tags := make([]string, 0, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		tags = append(tags, root.Content[i].Value)
	}
	return tags, nil
}

// New compiles schemaData (YAML or JSON) with tags injected as the enum of
// properties.tags.items.
func New(schemaData []byte, tags []string) (*Validator, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(schemaData, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse schema: %w", err)
	}
	items, err := tagItems(doc)
	if err != nil {
		return nil, err
	}
	enum := make([]any, len(tags))
	for i, t := range tags {
		enum[i] = t
	}
	items["enum"] = enum

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("schema: encode schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource("meta_schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}
	compiled, err := compiler.Compile("meta_schema.json")
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Validator{schema: compiled, tags: tags}, nil
}

func tagItems(doc map[string]any) (map[string]any, error) {
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		return nil, errors.New("schema: schema has no properties")
	}
	tagsProp, ok := props["tags"].(map[string]any)
	if !ok {
		return nil, errors.New("schema: schema has no tags property")
	}
	items, ok := tagsProp["items"].(map[string]any)
	if !ok {
		items = map[string]any{"type": "string"}
		tagsProp["items"] = items
	}
	return items, nil
}

// Tags returns the allowed tag list.
func (v *Validator) Tags() []string {
	return v.tags
}

// ValidateData validates one frontmatter map and returns error and warning
// messages of the form "field: message".
func (v *Validator) ValidateData(data map[string]any) (errs, warnings []string) {
	processed := Preprocess(data)

	errs = append(errs, v.validateSchema(processed)...)
	errs = append(errs, validateDates(processed)...)
	errs = append(errs, validateWikiLinks(processed)...)
	warnings = append(warnings, validateTagCoherence(processed)...)
	return errs, warnings
}

// Preprocess returns a copy of data with YAML timestamps rendered as ISO
// strings, which is what the schema expects.
func Preprocess(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if t, ok := v.(time.Time); ok {
			if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
				v = t.Format(time.DateOnly)
			} else {
				v = t.Format("2006-01-02T15:04:05")
			}
		}
		out[k] = v
	}
	return out
}

func (v *Validator) validateSchema(data map[string]any) []string {
	instance, err := jsonValue(data)
	if err != nil {
		return []string{"(root): " + err.Error()}
	}
	err = v.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{"(root): " + err.Error()}
	}

	type issue struct{ path, msg string }
	var issues []issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if len(node.Causes) == 0 {
			issues = append(issues, issue{instancePath(node.InstanceLocation), node.Message})
			return
		}
		for _, c := range node.Causes {
			walk(c)
		}
	}
	walk(verr)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].path < issues[j].path })

	out := make([]string, len(issues))
	for i, is := range issues {
		out[i] = is.path + ": " + is.msg
	}
	return out
}

// jsonValue converts decoded YAML into the value shapes the schema
// validator understands.
func jsonValue(data map[string]any) (any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("frontmatter is not JSON-compatible: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func instancePath(loc string) string {
	loc = strings.Trim(loc, "/")
	if loc == "" {
		return "(root)"
	}
	return strings.ReplaceAll(loc, "/", ".")
}

func validateDates(data map[string]any) []string {
	var errs []string
	for _, field := range []string{"created", "revised"} {
		s, ok := data[field].(string)
		if !ok {
			continue
		}
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			errs = append(errs, fmt.Sprintf("%s: '%s' is not a valid ISO date (YYYY-MM-DD)", field, s))
		}
	}
	return errs
}
