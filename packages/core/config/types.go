package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Context is a named set of variables available to template resolution.
type Context map[string]string

// Request describes a single HTTP call. URL, header values, query parameter
// values and payload data may contain ${...} placeholders.
type Request struct {
	Description     string            `yaml:"description,omitempty"`
	Tags            []string          `yaml:"tags,omitempty"`
	URL             string            `yaml:"url"`
	Method          string            `yaml:"method,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	QueryParameters map[string]string `yaml:"query_parameters,omitempty"`
	Payload         Payload           `yaml:"payload,omitempty"`
}

// UnmarshalYAML decodes a request and applies the GET method default.
func (r *Request) UnmarshalYAML(node *yaml.Node) error {
	type plain Request
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Method == "" {
		p.Method = "GET"
	}
	*r = Request(p)
	return nil
}

// PayloadKind identifies the payload variants a request can carry.
type PayloadKind string

const (
	PayloadNone      PayloadKind = "none"
	PayloadRaw       PayloadKind = "raw"
	PayloadForm      PayloadKind = "form"
	PayloadMultipart PayloadKind = "multipart"
)

// Payload is the request body description. The zero value means no body.
type Payload struct {
	Kind   PayloadKind
	Raw    *RawSource       // set for PayloadRaw
	Form   []FormField      // set for PayloadForm, declaration order preserved
	Fields []MultipartField // set for PayloadMultipart, declaration order preserved
}

// IsZero reports whether the payload was never declared.
func (p Payload) IsZero() bool {
	return p.Kind == "" && p.Raw == nil && p.Form == nil && p.Fields == nil
}

// UnmarshalYAML decodes the tagged payload union. Form and multipart data
// keep their YAML declaration order, which is why they decode from the raw
// node instead of a map.
func (p *Payload) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type PayloadKind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	switch head.Type {
	case "", PayloadNone:
		p.Kind = PayloadNone
	case PayloadRaw:
		var spec struct {
			Body RawSource `yaml:"body"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		p.Kind = PayloadRaw
		p.Raw = &spec.Body
	case PayloadForm:
		var spec struct {
			Data yaml.Node `yaml:"data"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		fields, err := decodeFormFields(&spec.Data)
		if err != nil {
			return err
		}
		p.Kind = PayloadForm
		p.Form = fields
	case PayloadMultipart:
		var spec struct {
			Data yaml.Node `yaml:"data"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		fields, err := decodeMultipartFields(&spec.Data)
		if err != nil {
			return err
		}
		p.Kind = PayloadMultipart
		p.Fields = fields
	default:
		return fmt.Errorf("line %d: unknown payload type %q", node.Line, head.Type)
	}
	return nil
}

// MarshalYAML renders the payload back in its tagged form. Field order is
// not preserved on output.
func (p Payload) MarshalYAML() (any, error) {
	switch p.Kind {
	case "", PayloadNone:
		return map[string]any{"type": PayloadNone}, nil
	case PayloadRaw:
		return map[string]any{"type": PayloadRaw, "body": p.Raw}, nil
	case PayloadForm:
		data := make(map[string]string, len(p.Form))
		for _, f := range p.Form {
			data[f.Name] = f.Value
		}
		return map[string]any{"type": PayloadForm, "data": data}, nil
	case PayloadMultipart:
		data := make(map[string]MultipartField, len(p.Fields))
		for _, f := range p.Fields {
			data[f.Name] = f
		}
		return map[string]any{"type": PayloadMultipart, "data": data}, nil
	}
	return nil, fmt.Errorf("unknown payload type %q", p.Kind)
}

// FormField is one key/value pair of a form payload.
type FormField struct {
	Name  string
	Value string
}

func decodeFormFields(node *yaml.Node) ([]FormField, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: form data must be a mapping", node.Line)
	}
	fields := make([]FormField, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: form field %q must be a scalar", value.Line, key.Value)
		}
		fields = append(fields, FormField{Name: key.Value, Value: value.Value})
	}
	return fields, nil
}

// FieldKind identifies the source of a multipart field value.
type FieldKind string

const (
	FieldText FieldKind = "text"
	FieldFile FieldKind = "file"
)

// MultipartField is a single part of a multipart payload. Data holds the
// literal value for text fields, Path the file location for file fields.
type MultipartField struct {
	Name string
	Kind FieldKind
	Data string
	Path string
}

// MarshalYAML renders the field back in its tagged form.
func (f MultipartField) MarshalYAML() (any, error) {
	if f.Kind == FieldFile {
		return map[string]any{"type": FieldFile, "path": f.Path}, nil
	}
	return map[string]any{"type": FieldText, "data": f.Data}, nil
}

func decodeMultipartFields(node *yaml.Node) ([]MultipartField, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: multipart data must be a mapping", node.Line)
	}
	fields := make([]MultipartField, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		var spec struct {
			Type FieldKind `yaml:"type"`
			Data string    `yaml:"data"`
			Path string    `yaml:"path"`
		}
		if err := value.Decode(&spec); err != nil {
			return nil, err
		}
		field := MultipartField{Name: key.Value, Kind: spec.Type}
		switch spec.Type {
		case FieldText:
			field.Data = spec.Data
		case FieldFile:
			field.Path = spec.Path
		default:
			return nil, fmt.Errorf("line %d: unknown multipart field type %q for %q", value.Line, spec.Type, key.Value)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// RawKind identifies where a raw payload body comes from.
type RawKind string

const (
	RawText RawKind = "raw"
	RawFile RawKind = "file"
)

// RawSource is the body of a raw payload, either inline text or a file path
// relative to the config directory.
type RawSource struct {
	Kind RawKind
	Data string
	Path string
}

// UnmarshalYAML decodes the tagged raw body union.
func (r *RawSource) UnmarshalYAML(node *yaml.Node) error {
	var spec struct {
		Type RawKind `yaml:"type"`
		Data string  `yaml:"data"`
		Path string  `yaml:"path"`
	}
	if err := node.Decode(&spec); err != nil {
		return err
	}
	switch spec.Type {
	case RawText:
		r.Kind = RawText
		r.Data = spec.Data
	case RawFile:
		r.Kind = RawFile
		r.Path = spec.Path
	default:
		return fmt.Errorf("line %d: unknown raw body type %q", node.Line, spec.Type)
	}
	return nil
}

// MarshalYAML renders the body back in its tagged form.
func (r RawSource) MarshalYAML() (any, error) {
	if r.Kind == RawFile {
		return map[string]any{"type": RawFile, "path": r.Path}, nil
	}
	return map[string]any{"type": RawText, "data": r.Data}, nil
}

// Test is an ordered scenario of steps that share one response store.
type Test struct {
	Description string  `yaml:"description,omitempty"`
	Steps       []*Step `yaml:"steps"`
}

// Step executes one named request and evaluates its assertions.
type Step struct {
	Name       string       `yaml:"name"`
	Request    string       `yaml:"request"`
	Asserts    []*Assert    `yaml:"asserts,omitempty"`
	SQLAsserts []*SQLAssert `yaml:"sql_asserts,omitempty"`
}

// AssertKind identifies the assertion variants a step can declare.
type AssertKind string

const (
	AssertStatusCode     AssertKind = "status_code"
	AssertHeaderContains AssertKind = "header_contains"
	AssertHeaderEquals   AssertKind = "header_equals"
	AssertContains       AssertKind = "contains"
	AssertEquals         AssertKind = "equals"
	AssertNotEquals      AssertKind = "not_equals"
	AssertHasPrefix      AssertKind = "has_prefix"
	AssertHasSuffix      AssertKind = "has_suffix"
	AssertRegex          AssertKind = "regex"
	AssertSchema         AssertKind = "schema"
)

// Assert is a single check against a recorded response.
//
// Key targets a header name for the header kinds and a body field path for
// the body kinds; status_code ignores it. Value carries the expected value,
// except for schema where it is a schema file path relative to the config
// directory.
type Assert struct {
	Kind   AssertKind
	Key    string
	Value  string
	Status int // expected code for AssertStatusCode
}

// UnmarshalYAML decodes the tagged assertion union.
func (a *Assert) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Type AssertKind `yaml:"type"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	switch head.Type {
	case AssertStatusCode:
		var spec struct {
			Value int `yaml:"value"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		a.Kind = head.Type
		a.Status = spec.Value
	case AssertHeaderContains, AssertHeaderEquals, AssertContains, AssertEquals,
		AssertNotEquals, AssertHasPrefix, AssertHasSuffix, AssertRegex, AssertSchema:
		var spec struct {
			Key   string     `yaml:"key"`
			Value flexScalar `yaml:"value"`
		}
		if err := node.Decode(&spec); err != nil {
			return err
		}
		a.Kind = head.Type
		a.Key = spec.Key
		a.Value = string(spec.Value)
	case "":
		return fmt.Errorf("line %d: assertion is missing a type", node.Line)
	default:
		return fmt.Errorf("line %d: unknown assertion type %q", node.Line, head.Type)
	}
	return nil
}

// MarshalYAML renders the assertion back in its tagged form.
func (a Assert) MarshalYAML() (any, error) {
	if a.Kind == AssertStatusCode {
		return map[string]any{"type": a.Kind, "value": a.Status}, nil
	}
	return map[string]any{"type": a.Kind, "key": a.Key, "value": a.Value}, nil
}

// String renders the assertion the way tests describe prints it.
func (a *Assert) String() string {
	switch a.Kind {
	case AssertStatusCode:
		return fmt.Sprintf("status_code == %d", a.Status)
	case AssertSchema:
		key := a.Key
		if key == "" {
			key = "body"
		}
		return fmt.Sprintf("schema(%s, %s)", key, a.Value)
	default:
		return fmt.Sprintf("%s(%s, %s)", a.Kind, a.Key, a.Value)
	}
}

// SQLAssert checks a database column value after a step's request completes.
// Connection, query and value may contain ${...} placeholders.
type SQLAssert struct {
	Connection string
	Query      string
	Column     string
	Value      string
}

// UnmarshalYAML decodes the assertion, accepting unquoted scalar values.
func (a *SQLAssert) UnmarshalYAML(node *yaml.Node) error {
	var spec struct {
		Connection string     `yaml:"connection"`
		Query      string     `yaml:"query"`
		Column     string     `yaml:"column"`
		Value      flexScalar `yaml:"value"`
	}
	if err := node.Decode(&spec); err != nil {
		return err
	}
	a.Connection = spec.Connection
	a.Query = spec.Query
	a.Column = spec.Column
	a.Value = string(spec.Value)
	return nil
}

// String renders the assertion the way tests describe prints it.
func (a *SQLAssert) String() string {
	return fmt.Sprintf("sql(%s, %s)", a.Column, a.Value)
}

// flexScalar accepts any YAML scalar and keeps its literal text, so expected
// values can be written unquoted (value: 42, value: false).
type flexScalar string

func (s *flexScalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*s = flexScalar(node.Value)
	return nil
}
