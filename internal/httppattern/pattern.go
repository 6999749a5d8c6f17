// Package httppattern parses the patterns accepted by the standard library http.ServeMux so that
// URLs can be built from them.
package httppattern

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// segment is a single path segment of a pattern. A literal "/" segment stands for "{$}"; a
// wildcard without name stands for the trailing slash of a prefix pattern.
type segment struct {
	s     string
	wild  bool
	multi bool
}

// Pattern is a parsed ServeMux pattern: "[METHOD ][HOST]/[PATH]".
type Pattern struct {
	str      string
	method   string
	host     string
	segments []segment
}

func (p *Pattern) String() string { return p.str }

// Method returns the method of the pattern, empty if it matches any method.
func (p *Pattern) Method() string { return p.method }

// Host returns the host of the pattern, empty if it matches any host.
func (p *Pattern) Host() string { return p.host }

// ParsePattern parses s the way the standard library mux does.
func ParsePattern(s string) (*Pattern, error) {
	if len(s) == 0 {
		return nil, errors.New("empty pattern")
	}

	p := &Pattern{str: s}
	rest := s

	if i := strings.IndexAny(s, " \t"); i >= 0 {
		p.method, rest = s[:i], strings.TrimLeft(s[i+1:], " \t")
		if !isToken(p.method) {
			return nil, errors.Errorf("bad method %q", p.method)
		}
	}

	i := strings.IndexByte(rest, '/')
	if i < 0 {
		return nil, errors.New("host/path missing /")
	}

	p.host, rest = rest[:i], rest[i:]
	if strings.IndexByte(p.host, '{') >= 0 {
		return nil, errors.New("host contains '{' (missing initial '/'?)")
	}

	seen := map[string]bool{}
	for len(rest) > 0 {
		rest = rest[1:]
		if len(rest) == 0 {
			p.segments = append(p.segments, segment{wild: true, multi: true})
			break
		}

		i := strings.IndexByte(rest, '/')
		if i < 0 {
			i = len(rest)
		}

		var seg string
		seg, rest = rest[:i], rest[i:]

		if strings.IndexByte(seg, '{') < 0 {
			lit, err := url.PathUnescape(seg)
			if err != nil {
				return nil, errors.Wrapf(err, "bad literal segment %q", seg)
			}

			p.segments = append(p.segments, segment{s: lit})

			continue
		}

		if seg[0] != '{' || seg[len(seg)-1] != '}' {
			return nil, errors.Errorf("bad wildcard segment %q (must be entire segment)", seg)
		}

		name := seg[1 : len(seg)-1]
		if name == "$" {
			if len(rest) != 0 {
				return nil, errors.New("{$} not at end")
			}

			p.segments = append(p.segments, segment{s: "/"})

			break
		}

		name, multi := strings.CutSuffix(name, "...")
		if multi && len(rest) != 0 {
			return nil, errors.New("{...} wildcard not at end")
		}

		if name == "" {
			return nil, errors.New("empty wildcard")
		}

		if !isValidWildcardName(name) {
			return nil, errors.Errorf("bad wildcard name %q", name)
		}

		if seen[name] {
			return nil, errors.Errorf("duplicate wildcard name %q", name)
		}

		seen[name] = true
		p.segments = append(p.segments, segment{s: name, wild: true, multi: multi})
	}

	return p, nil
}

// Build returns the path of p with the wildcards replaced by vals, in order of appearance.
func Build(p *Pattern, vals ...string) (string, error) {
	var b strings.Builder

	next := 0
	for _, seg := range p.segments {
		switch {
		case !seg.wild && seg.s == "/", seg.wild && seg.s == "":
			b.WriteByte('/')
		case seg.wild:
			if next >= len(vals) {
				return "", errors.Errorf("not enough values for %q, got: %d", p.str, len(vals))
			}

			val := vals[next]
			next++

			b.WriteByte('/')

			if seg.multi {
				b.WriteString((&url.URL{Path: val}).EscapedPath())
			} else {
				b.WriteString(url.PathEscape(val))
			}
		default:
			b.WriteByte('/')
			b.WriteString((&url.URL{Path: seg.s}).EscapedPath())
		}
	}

	if next < len(vals) {
		return "", errors.Errorf("too many values for %q, got: %d", p.str, len(vals))
	}

	return b.String(), nil
}

func isValidWildcardName(s string) bool {
	for i, c := range s {
		if !unicode.IsLetter(c) && c != '_' && (i == 0 || !unicode.IsDigit(c)) {
			return false
		}
	}

	return true
}

func isToken(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		return r <= ' ' || r >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, r)
	}) < 0
}
