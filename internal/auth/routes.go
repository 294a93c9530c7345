package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Classification says whether a request needs a token.
type Classification int

const (
	// Protected is the zero value so an unclassified request fails closed.
	Protected Classification = iota
	Public
)

func (c Classification) String() string {
	if c == Public {
		return "public"
	}
	return "protected"
}

// RoutePattern is a segment glob such as /api/media/** or /api/users/*/avatar.
// A trailing ** matches the prefix itself and any sub-path; * matches one
// segment. Prefixing the pattern with "OPTIONS " restricts it to preflight.
type RoutePattern struct {
	raw         string
	segments    []string
	subtree     bool
	optionsOnly bool
}

// ParseRoutePattern parses a pattern string.
func ParseRoutePattern(s string) (RoutePattern, error) {
	raw := strings.TrimSpace(s)
	p := RoutePattern{raw: raw}

	pattern := raw
	if method, rest, ok := strings.Cut(raw, " "); ok {
		if method != http.MethodOptions {
			return RoutePattern{}, fmt.Errorf("route pattern %q: only the OPTIONS qualifier is supported", s)
		}
		p.optionsOnly = true
		pattern = strings.TrimSpace(rest)
	}

	if !strings.HasPrefix(pattern, "/") {
		return RoutePattern{}, fmt.Errorf("route pattern %q: must start with /", s)
	}

	segments, ok := splitSegments(pattern)
	if !ok {
		return RoutePattern{}, fmt.Errorf("route pattern %q: dot-dot segments are not allowed", s)
	}
	for i, seg := range segments {
		if seg != "**" {
			continue
		}
		if i != len(segments)-1 {
			return RoutePattern{}, fmt.Errorf("route pattern %q: ** is only allowed as the last segment", s)
		}
		p.subtree = true
		segments = segments[:i]
	}
	p.segments = segments

	return p, nil
}

// Matches reports whether the pattern admits the given request line.
func (p RoutePattern) Matches(requestPath, method string) bool {
	if p.optionsOnly && method != http.MethodOptions {
		return false
	}

	segments, ok := splitSegments(requestPath)
	if !ok {
		return false
	}
	if len(segments) < len(p.segments) {
		return false
	}
	if !p.subtree && len(segments) != len(p.segments) {
		return false
	}

	for i, want := range p.segments {
		if want != "*" && want != segments[i] {
			return false
		}
	}
	return true
}

func (p RoutePattern) String() string {
	return p.raw
}

// RouteClassifier holds the public route table. It is built once at startup
// and never modified.
type RouteClassifier struct {
	public []RoutePattern
}

// NewRouteClassifier parses patterns in order.
func NewRouteClassifier(patterns []string) (*RouteClassifier, error) {
	public := make([]RoutePattern, 0, len(patterns))
	for _, s := range patterns {
		p, err := ParseRoutePattern(s)
		if err != nil {
			return nil, err
		}
		public = append(public, p)
	}
	return &RouteClassifier{public: public}, nil
}

// Classify applies the rules in order: preflight requests are public, then
// any matching public pattern, otherwise protected.
func (c *RouteClassifier) Classify(requestPath, method string) Classification {
	if method == http.MethodOptions {
		return Public
	}
	for _, p := range c.public {
		if p.Matches(requestPath, method) {
			return Public
		}
	}
	return Protected
}

// Patterns returns a copy of the configured public patterns.
func (c *RouteClassifier) Patterns() []string {
	out := make([]string, len(c.public))
	for i, p := range c.public {
		out[i] = p.raw
	}
	return out
}

// splitSegments returns the non-empty segments of p, so "/a//b/" and
// "/a/./b" both yield [a b]. Segments are compared as given and never
// unescaped, matching how the router sees them. A dot-dot segment, literal or
// percent-encoded, reports false: it is never resolved, so such a path can only
// be protected.
func splitSegments(p string) ([]string, bool) {
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if isDotDot(seg) {
			return nil, false
		}
		segments = append(segments, seg)
	}
	return segments, true
}

func isDotDot(seg string) bool {
	if seg == ".." {
		return true
	}
	unescaped, err := url.PathUnescape(seg)
	if err != nil {
		return false
	}
	// Encoded separators hide dot-dot inside one raw segment.
	for _, part := range strings.FieldsFunc(unescaped, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
