package dispatch

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Executor delegates an exec-action resource target to the host
// environment. It is invoked after the resource's existence has been
// verified and the merged query parameters have been folded into the
// request's query store.
type Executor func(req *Request, path string) error

// Registry holds named rule specs and dispatches requests against them.
//
// Raw specs are stored eagerly and cheaply; a spec is validated and
// built into a Rule on first use, and the built rule is cached by name.
// Matching iterates specs in registration order and the first rule
// whose pattern matches wins.
//
// A Registry performs no internal locking. Register all rules before
// dispatching concurrently, and treat CurrentRuleName and the request
// query store as request-scoped in multi-threaded hosts.
type Registry struct {
	// names holds registration order, the matching priority order.
	names []string
	specs map[string]Spec
	built map[string]*Rule

	current    string
	hasCurrent bool

	filesRoot  string
	basePrefix string
	autoSlash  bool
	exec       Executor
	log        *zap.Logger
}

// New returns an empty registry with trailing-slash normalization
// enabled and a no-op logger.
func New() *Registry {
	return &Registry{
		specs:     make(map[string]Spec),
		built:     make(map[string]*Rule),
		autoSlash: true,
		log:       zap.NewNop(),
	}
}

// Register stores a raw spec under name. Registering the same name
// again overwrites the earlier spec and keeps its original position in
// the matching order. No validation happens here; the spec is checked
// when the rule is first built.
func (g *Registry) Register(name string, spec Spec) *Registry {
	if _, ok := g.specs[name]; !ok {
		g.names = append(g.names, name)
	}
	g.specs[name] = spec
	return g
}

// RegisterAll stores the given specs in slice order.
func (g *Registry) RegisterAll(specs []NamedSpec) *Registry {
	for _, s := range specs {
		g.Register(s.Name, s.Spec)
	}
	return g
}

// BasePrefix sets the leading path segment stripped before matching.
// When the prefix is empty or "/", exactly one leading character is
// stripped instead.
func (g *Registry) BasePrefix(prefix string) *Registry {
	g.basePrefix = prefix
	return g
}

// AutoSlash defines the trailing slash behavior. When enabled (the
// default), a normalized path that does not end in "/" gets one
// appended before matching.
func (g *Registry) AutoSlash(value bool) *Registry {
	g.autoSlash = value
	return g
}

// ResourceExecutor sets the delegate for exec-action resource targets.
// Without one, exec-action resources are delivered verbatim like the
// read action.
func (g *Registry) ResourceExecutor(fn Executor) *Registry {
	g.exec = fn
	return g
}

// Logger sets the structured logger. The registry logs dispatch events
// at debug level only.
func (g *Registry) Logger(log *zap.Logger) *Registry {
	if log != nil {
		g.log = log
	}
	return g
}

// SetFilesRoot sets the base directory prepended to resource target
// paths. The directory must exist; an empty path clears the setting.
func (g *Registry) SetFilesRoot(dir string) error {
	if dir == "" {
		g.filesRoot = ""
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return &ConfigError{Reason: fmt.Sprintf("files root %q", dir), Err: err}
	}
	if !info.IsDir() {
		return &ConfigError{Reason: fmt.Sprintf("files root %q is not a directory", dir)}
	}

	g.filesRoot = dir
	return nil
}

// FilesRoot returns the configured files root directory, if any.
func (g *Registry) FilesRoot() string {
	return g.filesRoot
}

// Names returns the registered rule names in matching priority order.
func (g *Registry) Names() []string {
	names := make([]string, len(g.names))
	copy(names, g.names)
	return names
}

// Len returns the number of registered rules.
func (g *Registry) Len() int {
	return len(g.names)
}

// CurrentRuleName returns the name of the most recently dispatched rule
// and whether any dispatch has matched yet.
func (g *Registry) CurrentRuleName() (string, bool) {
	return g.current, g.hasCurrent
}

// URLFor builds the literal URL for the named rule by substituting args
// into its URL template. The rule is built on first use; an
// UnknownRuleError is returned when no spec is registered under name.
func (g *Registry) URLFor(name string, args ...any) (string, error) {
	rule, err := g.rule(name)
	if err != nil {
		return "", err
	}
	return rule.URLFor(args...)
}

// Build validates the spec registered under name and constructs its
// Rule. Building a name that has already been built is a ConfigError;
// use this only to force construction eagerly, dispatch and URLFor
// build lazily through the cache.
func (g *Registry) Build(name string) (*Rule, error) {
	if _, ok := g.built[name]; ok {
		return nil, &ConfigError{Rule: name, Reason: "rule already built"}
	}

	spec, ok := g.specs[name]
	if !ok {
		return nil, &UnknownRuleError{Rule: name}
	}

	if spec.Pattern == "" {
		return nil, &ConfigError{Rule: name, Reason: "missing pattern"}
	}
	if spec.Target == nil {
		return nil, &ConfigError{Rule: name, Reason: "missing target"}
	}

	re, err := compileRegexp(spec.Pattern)
	if err != nil {
		return nil, &ConfigError{Rule: name, Reason: "invalid pattern", Err: err}
	}

	urlTemplate := spec.URL
	if urlTemplate == "" {
		urlTemplate = deriveURL(spec.Pattern)
	}

	extra := make(map[string]any, len(spec.Params)+1)
	for k, v := range spec.Params {
		extra[k] = v
	}

	rule := &Rule{
		name:        name,
		re:          re,
		urlTemplate: urlTemplate,
		target:      spec.Target,
		extra:       extra,
	}

	if len(spec.Query) > 0 {
		rule.MergeExtraData(map[string]any{queryDefaultsKey: spec.Query})
	}

	g.built[name] = rule
	g.log.Debug("rule built",
		zap.String("rule", name),
		zap.String("pattern", spec.Pattern),
		zap.String("url", urlTemplate),
	)

	return rule, nil
}

// rule returns the cached Rule for name, building it on first use.
// Build failures are not cached: the error surfaces to the caller and
// the name stays unbuilt.
func (g *Registry) rule(name string) (*Rule, error) {
	if rule, ok := g.built[name]; ok {
		return rule, nil
	}
	return g.Build(name)
}

// Handle matches the requested path against the registered rules in
// registration order and invokes the first matching target. An empty
// requested path falls back to req.RequestURI.
//
// The path is normalized first: the base prefix is stripped, the query
// string is split off and parsed into req.Query, and a trailing slash
// is appended when AutoSlash is enabled. Named captures of the matching
// pattern become the extracted parameters.
//
// For callback targets, argsInQuery selects the invocation style: when
// false, or when the rule sets args_in_get: false, the handler receives
// the extracted parameters directly; otherwise the merged parameter set
// is folded into req.Query and the handler receives nil params. For
// resource targets the backing file must exist; the read action streams
// it to req.Out and the default exec action delegates to the configured
// Executor.
//
// A build failure aborts the dispatch with that error; no later rule is
// tried. When no rule matches, Handle returns a NotFoundError carrying
// the normalized path.
func (g *Registry) Handle(req *Request, requested string, argsInQuery bool) error {
	if req == nil {
		return &ConfigError{Reason: "nil request"}
	}

	path := requested
	if path == "" {
		path = req.RequestURI
	}
	path = g.normalize(req, path)

	for _, name := range g.names {
		rule, err := g.rule(name)
		if err != nil {
			return err
		}

		m := rule.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}

		g.current = name
		g.hasCurrent = true

		params := extractParams(rule.re.SubexpNames(), m)

		g.log.Debug("rule matched",
			zap.String("rule", name),
			zap.String("path", path),
			zap.String("request_id", req.ID),
			zap.Int("params", len(params)),
		)

		return g.invoke(req, rule, params, argsInQuery)
	}

	g.log.Debug("no rule matched",
		zap.String("path", path),
		zap.String("request_id", req.ID),
	)

	return &NotFoundError{Path: path}
}

// normalize strips the base prefix, splits off and parses the query
// string into the request's query store, and applies trailing-slash
// normalization.
func (g *Registry) normalize(req *Request, path string) string {
	if g.basePrefix == "" || g.basePrefix == "/" {
		if path != "" {
			path = path[1:]
		}
	} else {
		path = strings.TrimPrefix(path, g.basePrefix)
	}

	if i := strings.IndexByte(path, '?'); i >= 0 {
		req.SetQuery(path[i+1:])
		path = path[:i]
	} else {
		req.SetQuery("")
	}

	if g.autoSlash && !strings.HasSuffix(path, "/") {
		path += "/"
	}

	return path
}

// invoke dispatches the matched rule per its target kind.
func (g *Registry) invoke(req *Request, rule *Rule, params Params, argsInQuery bool) error {
	kind, err := rule.Kind()
	if err != nil {
		return err
	}

	switch kind {
	case TargetCallback:
		if !argsInQuery || rule.argsInQueryDisabled() {
			return rule.callback(req, params)
		}
		req.MergeQuery(rule.mergedQuery(params))
		return rule.callback(req, nil)

	case TargetResource:
		path := rule.resource
		if g.filesRoot != "" {
			path = g.filesRoot + "/" + path
		}

		if _, err := os.Stat(path); err != nil {
			return &ResourceError{Path: path, Err: err}
		}

		if rule.ExtraData("action", "exec") == "read" {
			return deliverFile(req.Out, path)
		}

		req.MergeQuery(rule.mergedQuery(params))
		if g.exec != nil {
			return g.exec(req, path)
		}
		return deliverFile(req.Out, path)
	}

	return &ConfigError{Rule: rule.name, Reason: "unresolved target kind"}
}

// deliverFile streams the file at path verbatim to out.
func deliverFile(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ResourceError{Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("dispatch: deliver %q: %w", path, err)
	}
	return nil
}

// extractParams maps named captures to their submatch values. Unnamed
// groups are discarded.
func extractParams(names []string, match []string) Params {
	params := make(Params)
	for i, name := range names {
		if i == 0 || name == "" || i >= len(match) {
			continue
		}
		params[name] = match[i]
	}
	return params
}
