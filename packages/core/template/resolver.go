package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/apictl/packages/response"
)

// ErrUnresolvedVariable reports a placeholder that no context variable or
// recorded response could satisfy. Resolution fails instead of silently
// substituting an empty string.
var ErrUnresolvedVariable = errors.New("unresolved variable")

// responsePrefix routes a placeholder to the response store. The prefix must
// match exactly, so ${responses.foo} is an ordinary context variable.
const responsePrefix = "response."

var placeholderPattern = regexp.MustCompile(`\$\{\s*([-.\w]+)\s*\}`)

// Resolver substitutes placeholders from a variable set and a run's response
// store. Each run builds its own resolver, so there is no shared state.
type Resolver struct {
	vars      map[string]string
	responses *response.Store
}

// NewResolver builds a resolver over the merged context variables and the
// run's response store. Either argument may be nil.
func NewResolver(vars map[string]string, responses *response.Store) *Resolver {
	return &Resolver{vars: vars, responses: responses}
}

// Resolve substitutes every ${...} placeholder in input. Substituted values
// are copied verbatim and never rescanned, so a value containing ${...} does
// not trigger another round of resolution. Strings without placeholders come
// back unchanged.
func (r *Resolver) Resolve(input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}
	matches := placeholderPattern.FindAllStringSubmatchIndex(input, -1)
	if len(matches) == 0 {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	last := 0
	for _, m := range matches {
		b.WriteString(input[last:m[0]])
		value, err := r.lookup(input[m[2]:m[3]])
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		last = m[1]
	}
	b.WriteString(input[last:])
	return b.String(), nil
}

// ResolveAll resolves every value of a string map, failing on the first
// unresolvable entry.
func (r *Resolver) ResolveAll(values map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(values))
	for k, v := range values {
		rv, err := r.Resolve(v)
		if err != nil {
			return nil, err
		}
		resolved[k] = rv
	}
	return resolved, nil
}

func (r *Resolver) lookup(name string) (string, error) {
	if rest, ok := strings.CutPrefix(name, responsePrefix); ok {
		return r.lookupResponse(name, rest)
	}
	if value, ok := r.vars[name]; ok {
		return value, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnresolvedVariable, name)
}

func (r *Resolver) lookupResponse(name, rest string) (string, error) {
	id, path, ok := strings.Cut(rest, ".")
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %q needs a request name and a field path", ErrUnresolvedVariable, name)
	}
	if r.responses == nil {
		return "", fmt.Errorf("%w: %q, no responses recorded", ErrUnresolvedVariable, name)
	}
	value, err := r.responses.Field(id, path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrUnresolvedVariable, name, err)
	}
	return value, nil
}
