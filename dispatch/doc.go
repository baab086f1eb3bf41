// Package dispatch implements a declarative URL dispatcher: a registry
// of named routing rules matched against request paths in registration
// order, with reverse URL lookup by rule name.
//
// Each rule pairs a regular-expression pattern with a target — either a
// callback function or a filesystem resource — plus an optional
// canonical URL template and an options bag. Specs are registered
// cheaply and validated lazily: a rule is built on first use and cached
// by name.
//
// # Registering rules
//
// Create a registry and register specs. Registration order is the
// matching priority order; the first rule whose pattern matches wins:
//
//	reg := dispatch.New()
//	reg.Register("article", dispatch.Spec{
//		Pattern: `^article/(?P<id>[0-9]+)/$`,
//		URL:     "article/%s/",
//		Target: dispatch.HandlerFunc(func(req *dispatch.Request, params dispatch.Params) error {
//			fmt.Fprintf(req.Out, "article %s", params["id"])
//			return nil
//		}),
//	})
//	reg.Register("static", dispatch.Spec{
//		Pattern: `^assets/(?P<file>.+)$`,
//		Target:  "assets.txt",
//	})
//
// A string target is always a resource path, a HandlerFunc is always a
// callback. There is no other classification rule.
//
// # Dispatching
//
// Handle normalizes the requested path, matches it and invokes the
// first matching target:
//
//	req := dispatch.NewRequest("/article/42/?format=html", os.Stdout)
//	err := reg.Handle(req, "", false)
//
// Normalization strips the configured base prefix, splits off the query
// string into req.Query, and appends a trailing slash unless AutoSlash
// is disabled. Named captures of the pattern become the extracted
// parameters.
//
// # Reverse lookup
//
// URLFor fills a rule's URL template positionally:
//
//	url, err := reg.URLFor("article", 42) // "article/42/"
//
// When a spec has no explicit URL, the template is derived from the
// pattern by stripping its first and last character, assuming anchors
// on both ends.
//
// # Rule files
//
// Rules can be declared in a YAML file and loaded with LoadFile, which
// preserves the file's top-to-bottom order as the matching priority
// order. Targets naming a supplied handler become callbacks; all other
// targets are resource paths.
//
// # Errors
//
// All failure modes are distinct types usable with errors.As:
// ConfigError for malformed specs and registry configuration,
// UnknownRuleError for reverse lookups of unregistered names,
// FormatError for URL template substitution mismatches, ResourceError
// for missing resource files, and NotFoundError — carrying the
// normalized path — when no rule matches.
package dispatch
