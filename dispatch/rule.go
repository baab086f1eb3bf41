package dispatch

import (
	"fmt"
	"regexp"
	"strings"
)

// Params holds the named captures extracted from a matched path,
// keyed by capture group name.
type Params map[string]string

// HandlerFunc is the signature of a callback target. It receives the
// request being dispatched and the extracted path parameters. When the
// dispatch merges parameters into the query store instead, params is nil
// and the handler is expected to read req.Query.
type HandlerFunc func(req *Request, params Params) error

// TargetKind classifies a rule's destination.
type TargetKind int

const (
	// TargetCallback is an invocable handler.
	TargetCallback TargetKind = iota + 1

	// TargetResource is a filesystem-backed resource path.
	TargetResource
)

func (k TargetKind) String() string {
	switch k {
	case TargetCallback:
		return "callback"
	case TargetResource:
		return "resource"
	}
	return "unresolved"
}

// queryDefaultsKey is the reserved extra-data key holding a rule's
// default query parameters.
const queryDefaultsKey = "GET"

// Spec is the raw, as-registered description of a rule before
// validation and construction.
type Spec struct {
	// Pattern is the regular expression matched against the normalized
	// request path. Patterns are not anchored implicitly and are
	// expected to carry their own anchors. Required.
	Pattern string

	// URL is the canonical URL template with positional fmt placeholders
	// (e.g. "article/%s/"). When empty it is derived from Pattern by
	// stripping its first and last character, which assumes the pattern
	// is anchored on both ends.
	URL string

	// Target is the rule's destination. A string is always a resource
	// path; a HandlerFunc (or a bare func with the same signature) is
	// always a callback. This is the sole classification rule. Required.
	Target any

	// Params holds arbitrary extra options attached to the rule, such as
	// "action" or "args_in_get".
	Params map[string]any

	// Query holds default query parameters folded into the dispatch
	// query set. Defaults override extracted path parameters of the
	// same name.
	Query map[string]string
}

// NamedSpec pairs a rule name with its spec for ordered bulk
// registration. Registration order is the matching priority order, so
// bulk registration takes a slice rather than a map.
type NamedSpec struct {
	Name string
	Spec Spec
}

// Rule is a built, immutable routing mapping. Rules are constructed by
// the registry from a Spec, at most once per name, and cached.
type Rule struct {
	// name is the registry key the rule was built under.
	name string
	// re is the compiled pattern.
	re *regexp.Regexp
	// urlTemplate is the canonical URL template for reverse lookup.
	urlTemplate string
	// target is the raw target value as registered.
	target any
	// kind is the resolved target classification, zero until first use.
	kind TargetKind
	// callback is the normalized callable, set once kind is resolved.
	callback HandlerFunc
	// resource is the resource path, set once kind is resolved.
	resource string
	// extra merges Spec.Params with the query defaults under the
	// reserved "GET" key.
	extra map[string]any
}

// Name returns the name the rule was built under.
func (r *Rule) Name() string {
	return r.name
}

// Pattern returns the rule's pattern string.
func (r *Rule) Pattern() string {
	return r.re.String()
}

// URLTemplate returns the canonical URL template.
func (r *Rule) URLTemplate() string {
	return r.urlTemplate
}

// URLFor substitutes args positionally into the URL template and
// returns the literal URL. It returns a FormatError if the number of
// arguments does not match the number of placeholders or an argument
// does not fit its placeholder type.
func (r *Rule) URLFor(args ...any) (string, error) {
	want := countPlaceholders(r.urlTemplate)
	if len(args) != want {
		return "", &FormatError{
			Template: r.urlTemplate,
			Reason:   fmt.Sprintf("expected %d arguments, got %d", want, len(args)),
		}
	}

	out := fmt.Sprintf(r.urlTemplate, args...)

	// fmt reports substitution failures in-band with a %! marker.
	if strings.Contains(out, "%!") {
		return "", &FormatError{
			Template: r.urlTemplate,
			Reason:   "argument type mismatch",
		}
	}

	return out, nil
}

// Kind resolves and returns the target classification. Resolution
// happens once, on first use: a string target is a resource path, a
// HandlerFunc is a callback. Any other target type is a ConfigError.
func (r *Rule) Kind() (TargetKind, error) {
	if r.kind != 0 {
		return r.kind, nil
	}

	switch t := r.target.(type) {
	case HandlerFunc:
		r.kind = TargetCallback
		r.callback = t
	case func(*Request, Params) error:
		r.kind = TargetCallback
		r.callback = t
	case string:
		r.kind = TargetResource
		r.resource = t
	default:
		return 0, &ConfigError{
			Rule:   r.name,
			Reason: fmt.Sprintf("target must be a string or a HandlerFunc, got %T", r.target),
		}
	}

	return r.kind, nil
}

// ExtraData returns the extra option stored under key, or fallback if
// the key is absent.
func (r *Rule) ExtraData(key string, fallback any) any {
	if v, ok := r.extra[key]; ok {
		return v
	}
	return fallback
}

// MergeExtraData folds overlay into the rule's extra options. Overlay
// keys overwrite existing keys of the same name.
func (r *Rule) MergeExtraData(overlay map[string]any) {
	for k, v := range overlay {
		r.extra[k] = v
	}
}

// queryDefaults returns the rule's default query parameters, if any.
func (r *Rule) queryDefaults() map[string]string {
	if v, ok := r.extra[queryDefaultsKey].(map[string]string); ok {
		return v
	}
	return nil
}

// argsInQueryDisabled reports whether the rule explicitly opts out of
// parameter-into-query merging with an args_in_get: false option.
func (r *Rule) argsInQueryDisabled() bool {
	v, ok := r.extra["args_in_get"].(bool)
	return ok && !v
}

// mergedQuery layers the rule's query defaults over the extracted
// params. Defaults win on key collision: the rule author's declared
// defaults are authoritative overrides.
func (r *Rule) mergedQuery(params Params) map[string]string {
	defaults := r.queryDefaults()
	merged := make(map[string]string, len(params)+len(defaults))
	for k, v := range params {
		merged[k] = v
	}
	for k, v := range defaults {
		merged[k] = v
	}
	return merged
}

// deriveURL derives a URL template from a pattern by stripping one
// leading and one trailing anchor marker. The strip is purely
// syntactic: a pattern without anchors loses its first and last
// character, which callers must treat as best-effort.
func deriveURL(pattern string) string {
	if len(pattern) < 2 {
		return ""
	}
	return pattern[1 : len(pattern)-1]
}

// countPlaceholders counts fmt verbs in a template, treating %% as a
// literal percent sign.
func countPlaceholders(template string) int {
	n := 0
	for i := 0; i < len(template); i++ {
		if template[i] != '%' {
			continue
		}
		if i+1 < len(template) && template[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}
