// Package response records the responses of a single run, keyed by request
// name, so later steps can reference fields of earlier results.
package response

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/apictl/packages/http"
	"github.com/tidwall/gjson"
)

var (
	// ErrDuplicateResponse reports a second record under an already used
	// request name.
	ErrDuplicateResponse = errors.New("response already recorded")
	// ErrUnknownResponse reports a lookup for a request that has not
	// executed in this run.
	ErrUnknownResponse = errors.New("unknown response")
	// ErrFieldNotFound reports a field path that does not exist in a
	// recorded body, or a body that is not JSON.
	ErrFieldNotFound = errors.New("field not found")
)

// Store collects the responses of one run. Each request name is recorded at
// most once. A store is owned by its run and is not safe for concurrent use.
type Store struct {
	order   []string
	records map[string]*http.Response
	parsed  map[string]gjson.Result
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*http.Response),
		parsed:  make(map[string]gjson.Result),
	}
}

// Put records a response under the request name that produced it.
func (s *Store) Put(name string, resp *http.Response) error {
	if _, ok := s.records[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateResponse, name)
	}
	s.records[name] = resp
	s.order = append(s.order, name)
	return nil
}

// Get returns the response recorded under name.
func (s *Store) Get(name string) (*http.Response, error) {
	resp, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResponse, name)
	}
	return resp, nil
}

// Len returns the number of recorded responses.
func (s *Store) Len() int {
	return len(s.order)
}

// Names returns the recorded request names in insertion order.
func (s *Store) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Field traverses the recorded body and returns the addressed value in its
// string representation: strings unquoted, numbers and booleans as literals,
// null as the empty string, objects and arrays as raw JSON. Dots separate
// path segments and numeric segments index arrays. An empty path addresses
// the whole body.
func (s *Store) Field(name, path string) (string, error) {
	resp, err := s.Get(name)
	if err != nil {
		return "", err
	}
	body, ok := s.body(name, resp)
	if !ok {
		return "", fmt.Errorf("%w: response %q is not JSON", ErrFieldNotFound, name)
	}
	if path == "" {
		return body.String(), nil
	}
	value := body.Get(path)
	if !value.Exists() {
		return "", fmt.Errorf("%w: %q in response %q", ErrFieldNotFound, path, name)
	}
	return value.String(), nil
}

// body returns the parsed JSON body, caching the parse per request name.
func (s *Store) body(name string, resp *http.Response) (gjson.Result, bool) {
	if cached, ok := s.parsed[name]; ok {
		return cached, true
	}
	body, ok := resp.JSON()
	if !ok {
		return gjson.Result{}, false
	}
	s.parsed[name] = body
	return body, true
}
