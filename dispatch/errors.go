package dispatch

import "fmt"

// ConfigError reports a malformed rule spec or registry configuration:
// a missing required field, an invalid pattern, a duplicate build of an
// already-built rule name, or a files root that does not exist.
type ConfigError struct {
	// Rule is the name of the offending rule, empty for registry-level
	// configuration problems.
	Rule string

	// Reason describes what is wrong with the configuration.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

func (e *ConfigError) Error() string {
	msg := "dispatch: " + e.Reason
	if e.Rule != "" {
		msg = fmt.Sprintf("dispatch: rule %q: %s", e.Rule, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UnknownRuleError reports a reverse lookup for a name with no spec
// registered under it.
type UnknownRuleError struct {
	// Rule is the name that was looked up.
	Rule string
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("dispatch: no rule registered under %q", e.Rule)
}

// FormatError reports a URL template substitution failure: the number of
// supplied arguments does not match the number of placeholders, or an
// argument does not fit its placeholder type.
type FormatError struct {
	// Template is the URL template that failed to format.
	Template string

	// Reason describes the mismatch.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dispatch: format %q: %s", e.Template, e.Reason)
}

// ResourceError reports a resource-kind target whose backing file is
// missing or unreadable at dispatch time. It aborts the whole dispatch;
// later rules are not evaluated.
type ResourceError struct {
	// Path is the resolved resource path.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("dispatch: resource %q: %v", e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// NotFoundError reports that no registered rule matched the request.
// Path carries the normalized path that was matched against.
type NotFoundError struct {
	// Path is the normalized request path.
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dispatch: no rule matched %q", e.Path)
}
