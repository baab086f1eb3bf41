package dispatch

import (
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Request carries the per-dispatch state: the raw request URI, the
// query-parameter store and the response sink. It replaces the ambient
// request globals a front controller would otherwise provide; Handle
// initializes the query store and both callback and resource targets
// read from it.
//
// A Request is scoped to a single dispatch. The registry never retains
// one across Handle calls.
type Request struct {
	// ID is a unique identifier for the dispatch, used in log fields.
	ID string

	// RequestURI is the raw request path plus query string. Handle
	// falls back to it when called without an explicit path.
	RequestURI string

	// Query is the query-parameter store. Handle replaces it with the
	// parsed query string of the dispatched path and may merge
	// extracted and default parameters into it.
	Query url.Values

	// Out receives the response body for resource targets with the
	// read action, and is available to callback targets.
	Out io.Writer
}

// NewRequest returns a request for the given raw URI writing its
// response to out. A nil out discards the response body.
func NewRequest(requestURI string, out io.Writer) *Request {
	if out == nil {
		out = io.Discard
	}
	return &Request{
		ID:         uuid.NewString(),
		RequestURI: requestURI,
		Query:      url.Values{},
		Out:        out,
	}
}

// FromHTTP adapts an incoming HTTP request into a dispatch request.
// The response body is written to w.
func FromHTTP(r *http.Request, w http.ResponseWriter) *Request {
	return NewRequest(r.URL.RequestURI(), w)
}

// QueryValue returns the first value stored under key in the query
// store, or an empty string if the key is absent.
func (r *Request) QueryValue(key string) string {
	return r.Query.Get(key)
}

// SetQuery replaces the query store with the parsed form of rawQuery.
// Malformed pairs are dropped; the pairs before the first malformed one
// are kept, matching net/url semantics.
func (r *Request) SetQuery(rawQuery string) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil && values == nil {
		values = url.Values{}
	}
	r.Query = values
}

// MergeQuery sets each params entry in the query store, replacing any
// existing values under the same key.
func (r *Request) MergeQuery(params map[string]string) {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	for k, v := range params {
		r.Query.Set(k, v)
	}
}
