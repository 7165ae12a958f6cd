package assertions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
	"github.com/abdul-hamid-achik/apictl/packages/http"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Result is the outcome of a single assertion. A nil Err with Passed false
// is an ordinary failure; a non-nil Err means the assertion could not be
// evaluated at all, for example a field path missing from the body or an
// invalid regex.
type Result struct {
	Passed   bool
	Name     string
	Message  string
	Expected string
	Actual   string
	Err      error
}

// Evaluator checks assertions against one response. The body is parsed as
// JSON once, if it parses at all.
type Evaluator struct {
	response *http.Response
	body     gjson.Result
	bodyOK   bool
	baseDir  string
}

// EvaluatorOption is a functional option for configuring an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithBaseDir sets the directory schema file paths resolve against.
func WithBaseDir(dir string) EvaluatorOption {
	return func(e *Evaluator) {
		e.baseDir = dir
	}
}

func NewEvaluator(resp *http.Response, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{response: resp}
	e.body, e.bodyOK = resp.JSON()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs one assertion and never panics; unknown kinds come back as
// evaluation errors.
func (e *Evaluator) Evaluate(a *config.Assert) *Result {
	result := &Result{Name: a.String()}

	switch a.Kind {
	case config.AssertStatusCode:
		e.statusCode(a, result)
	case config.AssertHeaderContains, config.AssertHeaderEquals:
		e.header(a, result)
	case config.AssertContains, config.AssertEquals, config.AssertNotEquals,
		config.AssertHasPrefix, config.AssertHasSuffix, config.AssertRegex:
		e.bodyField(a, result)
	case config.AssertSchema:
		e.schema(a, result)
	default:
		result.Err = fmt.Errorf("unknown assertion type %q", a.Kind)
		result.Message = result.Err.Error()
	}
	return result
}

func (e *Evaluator) statusCode(a *config.Assert, r *Result) {
	r.Expected = strconv.Itoa(a.Status)
	r.Actual = strconv.Itoa(e.response.StatusCode)
	if e.response.StatusCode == a.Status {
		r.Passed = true
		return
	}
	r.Message = fmt.Sprintf("got status code %d, want %d", e.response.StatusCode, a.Status)
}

func (e *Evaluator) header(a *config.Assert, r *Result) {
	r.Expected = a.Value
	value, ok := e.response.LookupHeader(a.Key)
	if !ok {
		// An absent header is a failed check, not an evaluation error.
		r.Message = fmt.Sprintf("header not found: %s", a.Key)
		return
	}
	r.Actual = value

	switch a.Kind {
	case config.AssertHeaderContains:
		if strings.Contains(value, a.Value) {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("header '%s' got '%s', does not contain '%s'", a.Key, value, a.Value)
	case config.AssertHeaderEquals:
		if value == a.Value {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("header '%s' got '%s', want '%s'", a.Key, value, a.Value)
	}
}

func (e *Evaluator) bodyField(a *config.Assert, r *Result) {
	r.Expected = a.Value
	actual, err := e.field(a.Key)
	if err != nil {
		r.Err = err
		r.Message = err.Error()
		return
	}
	r.Actual = actual

	switch a.Kind {
	case config.AssertEquals:
		if actual == a.Value {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', want '%s'", a.Key, actual, a.Value)
	case config.AssertNotEquals:
		if actual != a.Value {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', did not want '%s'", a.Key, actual, a.Value)
	case config.AssertContains:
		if strings.Contains(actual, a.Value) {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', does not contain '%s'", a.Key, actual, a.Value)
	case config.AssertHasPrefix:
		if strings.HasPrefix(actual, a.Value) {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', does not have prefix '%s'", a.Key, actual, a.Value)
	case config.AssertHasSuffix:
		if strings.HasSuffix(actual, a.Value) {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', does not have suffix '%s'", a.Key, actual, a.Value)
	case config.AssertRegex:
		re, rerr := regexp.Compile(a.Value)
		if rerr != nil {
			r.Err = fmt.Errorf("invalid regex pattern: %w", rerr)
			r.Message = r.Err.Error()
			return
		}
		if re.MatchString(actual) {
			r.Passed = true
			return
		}
		r.Message = fmt.Sprintf("body '%s' got '%s', does not match regex '%s'", a.Key, actual, a.Value)
	}
}

// field returns the string representation of the addressed body value, using
// the same path semantics as response references: dots separate segments and
// numeric segments index arrays. An empty path addresses the whole body.
func (e *Evaluator) field(path string) (string, error) {
	if !e.bodyOK {
		return "", fmt.Errorf("response body is not JSON")
	}
	if path == "" {
		return e.body.String(), nil
	}
	value := e.body.Get(path)
	if !value.Exists() {
		return "", fmt.Errorf("key '%s' not found in response body", path)
	}
	return value.String(), nil
}

// fieldJSON returns the addressed value as a raw JSON document, or the whole
// body when path is empty.
func (e *Evaluator) fieldJSON(path string) ([]byte, error) {
	if !e.bodyOK {
		return nil, fmt.Errorf("response body is not JSON")
	}
	if path == "" {
		return e.response.Body, nil
	}
	value := e.body.Get(path)
	if !value.Exists() {
		return nil, fmt.Errorf("key '%s' not found in response body", path)
	}
	return []byte(value.Raw), nil
}

func (e *Evaluator) schema(a *config.Assert, r *Result) {
	r.Expected = a.Value
	document, err := e.fieldJSON(a.Key)
	if err != nil {
		r.Err = err
		r.Message = err.Error()
		return
	}

	schemaPath := a.Value
	if !filepath.IsAbs(schemaPath) && e.baseDir != "" {
		schemaPath = filepath.Join(e.baseDir, schemaPath)
	}
	if err := validatePathWithinBase(schemaPath, e.baseDir); err != nil {
		r.Err = err
		r.Message = err.Error()
		return
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		r.Err = fmt.Errorf("read schema file: %w", err)
		r.Message = r.Err.Error()
		return
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaData)
	documentLoader := gojsonschema.NewBytesLoader(document)

	outcome, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		r.Err = fmt.Errorf("schema validation: %w", err)
		r.Message = r.Err.Error()
		return
	}
	if outcome.Valid() {
		r.Passed = true
		return
	}

	var violations []string
	for _, desc := range outcome.Errors() {
		violations = append(violations, desc.String())
	}
	r.Message = fmt.Sprintf("schema validation failed: %s", strings.Join(violations, "; "))
}

// EvaluateAll runs every assertion against the response. All of them are
// evaluated even when earlier ones fail.
func EvaluateAll(resp *http.Response, asserts []*config.Assert, opts ...EvaluatorOption) []*Result {
	evaluator := NewEvaluator(resp, opts...)
	results := make([]*Result, len(asserts))
	for i, a := range asserts {
		results[i] = evaluator.Evaluate(a)
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []*Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// validatePathWithinBase checks that the resolved path stays within the base
// directory to prevent path traversal
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
