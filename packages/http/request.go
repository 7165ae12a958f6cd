package http

import (
	"net/url"
	"time"

	"github.com/abdul-hamid-achik/apictl/packages/core/config"
)

// ResolveFunc substitutes template placeholders in a configuration string.
type ResolveFunc func(string) (string, error)

type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        []byte
	ContentType string
	Timeout     time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:      method,
		URL:         requestURL,
		Headers:     make(map[string]string),
		QueryParams: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetQueryParam(key, value string) *Request {
	r.QueryParams[key] = value
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	q := u.Query()
	for k, v := range r.QueryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// BuildRequest materializes a configured request. The URL, header values and
// query parameter values run through resolve, and the payload is rendered
// into the final body bytes. File paths resolve relative to baseDir. The
// method is taken as declared.
func BuildRequest(def *config.Request, resolve ResolveFunc, baseDir string) (*Request, error) {
	resolvedURL, err := resolve(def.URL)
	if err != nil {
		return nil, err
	}
	r := NewRequest(def.Method, resolvedURL)

	for k, v := range def.Headers {
		rv, err := resolve(v)
		if err != nil {
			return nil, err
		}
		r.SetHeader(k, rv)
	}

	for k, v := range def.QueryParameters {
		rv, err := resolve(v)
		if err != nil {
			return nil, err
		}
		r.SetQueryParam(k, rv)
	}

	contentType, body, err := BuildBody(&def.Payload, resolve, baseDir)
	if err != nil {
		return nil, err
	}
	r.Body = body
	r.ContentType = contentType

	r.URL = r.BuildURL()
	return r, nil
}
