// Resolves SVG styling into flat property maps.
// Inline `style` attributes and class rules found in `<style>`
// blocks are both reduced to a StyleMap keyed by camel-cased
// CSS property names, ready to be consumed by a presentation layer.
package svgstyle

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrMalformedRule is returned in StrictErrorMode when a style
// entry does not split into a property and a value.
var ErrMalformedRule = errors.New("malformed style rule")

// ErrorMode determines if the resolver ignores, logs or errors out
// on malformed entries.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips malformed entries silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode skips malformed entries and logs them.
	WarnErrorMode
	// StrictErrorMode stops at the first malformed entry.
	StrictErrorMode
)

// StyleMap maps camel-cased CSS properties to their value.
type StyleMap map[string]string

// Clone returns a copy of m. The copy of a nil map is nil.
func (m StyleMap) Clone() StyleMap {
	if m == nil {
		return nil
	}
	out := make(StyleMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a new map holding m overridden by other,
// property by property. Neither input is modified.
func (m StyleMap) Merge(other StyleMap) StyleMap {
	out := make(StyleMap, len(m)+len(other))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// set normalizes and stores one declaration.
// `fill: none` is stored as `fill: transparent` so that an explicit
// "no fill" stays distinguishable from an unspecified one.
func (m StyleMap) set(property, value string) {
	property = CamelCase(strings.ToLower(property))
	if property == "fill" && strings.EqualFold(value, "none") {
		value = "transparent"
	}
	m[property] = value
}

// CamelCase converts hyphenated names (stroke-width) to camel case
// (strokeWidth). Names starting with `data-` or `aria-`, and CSS custom
// properties (`--x`), are returned unchanged.
func CamelCase(name string) string {
	if strings.HasPrefix(name, "data-") || strings.HasPrefix(name, "aria-") || strings.HasPrefix(name, "--") {
		return name
	}
	if !strings.Contains(name, "-") {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '-' && i+1 < len(name) && 'a' <= name[i+1] && name[i+1] <= 'z' {
			b.WriteByte(name[i+1] - 'a' + 'A')
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Resolver parses style sources. The zero value ignores malformed
// entries and does not log.
type Resolver struct {
	Mode   ErrorMode
	Logger *slog.Logger // used in WarnErrorMode, and for debug traces
}

var defaultResolver Resolver

// ParseInlineStyle parses the content of a `style` attribute,
// skipping malformed entries.
func ParseInlineStyle(raw string) StyleMap {
	m, _ := defaultResolver.ParseInline(raw)
	return m
}

// ParseInline parses a `;` separated list of `property: value` pairs.
// An error is only returned in StrictErrorMode.
func (r Resolver) ParseInline(raw string) (StyleMap, error) {
	out := StyleMap{}
	if err := r.parseDeclarations(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseDeclarations adds the declarations of `body` to `dst`.
func (r Resolver) parseDeclarations(body string, dst StyleMap) error {
	for _, entry := range strings.Split(body, ";") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		kv := strings.SplitN(entry, ":", 2)
		var k, v string
		if len(kv) == 2 {
			k, v = strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		}
		if k == "" || v == "" {
			if err := r.malformed(entry); err != nil {
				return err
			}
			continue
		}
		dst.set(k, v)
	}
	return nil
}

// malformed applies the error mode to a rejected entry.
func (r Resolver) malformed(entry string) error {
	switch r.Mode {
	case StrictErrorMode:
		return fmt.Errorf("%w: %q", ErrMalformedRule, strings.TrimSpace(entry))
	case WarnErrorMode:
		r.logger().Warn("skipping style entry", "entry", strings.TrimSpace(entry))
	}
	return nil
}

func (r Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r Resolver) debug(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, args...)
	}
}
