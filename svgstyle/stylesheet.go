package svgstyle

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// ClassStyles maps a class name to the declarations of the
// rules selecting it.
type ClassStyles map[string]StyleMap

// Resolve returns the union of the styles of the given classes,
// later classes overriding earlier ones. Unknown classes are ignored.
// The result is nil when no class is known.
func (cs ClassStyles) Resolve(classes []string) StyleMap {
	var out StyleMap
	for _, class := range classes {
		style, ok := cs[class]
		if !ok {
			continue
		}
		out = out.Merge(style)
	}
	return out
}

// ParseStyleBlocks extracts the class rules of a stylesheet,
// skipping malformed entries.
func ParseStyleBlocks(cssText string) ClassStyles {
	out, _ := defaultResolver.ParseBlocks(cssText)
	return out
}

// ParseBlocks extracts `.name { ... }` rules from a stylesheet.
// Only simple single-class selectors are matched: combinators,
// pseudo-classes, attribute, id and type selectors are ignored, as are
// at-rules. When the same class is selected by several rules, later
// declarations override earlier ones.
func (r Resolver) ParseBlocks(cssText string) (ClassStyles, error) {
	out := ClassStyles{}
	if strings.TrimSpace(cssText) == "" {
		return out, nil
	}
	sheet, err := parser.Parse(cssText)
	if err != nil {
		// the stylesheet is not valid as a whole: salvage it rule by rule
		r.debug("stylesheet parse failed, scanning rules", "error", err)
		return out, r.scanRules(cssText, out)
	}
	for _, rule := range sheet.Rules {
		if rule.Kind != css.QualifiedRule {
			r.debug("ignoring at-rule", "name", rule.Name)
			continue
		}
		style := StyleMap{}
		for _, decl := range rule.Declarations {
			k, v := strings.TrimSpace(decl.Property), strings.TrimSpace(decl.Value)
			if k == "" || v == "" {
				if err := r.malformed(decl.Property + ":" + decl.Value); err != nil {
					return nil, err
				}
				continue
			}
			style.set(k, v)
		}
		r.addRule(out, rule.Selectors, style)
	}
	return out, nil
}

// scanRules is the tolerant path: it splits the text on braces and
// parses each body as an inline declaration list.
func (r Resolver) scanRules(cssText string, out ClassStyles) error {
	for _, chunk := range strings.Split(stripComments(cssText), "}") {
		open := strings.IndexByte(chunk, '{')
		if open < 0 {
			continue
		}
		prelude, body := chunk[:open], chunk[open+1:]
		if strings.HasPrefix(strings.TrimSpace(prelude), "@") {
			continue
		}
		style := StyleMap{}
		if err := r.parseDeclarations(body, style); err != nil {
			return err
		}
		r.addRule(out, strings.Split(prelude, ","), style)
	}
	return nil
}

func (r Resolver) addRule(out ClassStyles, selectors []string, style StyleMap) {
	for _, sel := range selectors {
		name, ok := simpleClass(sel)
		if !ok {
			r.debug("ignoring unsupported selector", "selector", strings.TrimSpace(sel))
			continue
		}
		out[name] = out[name].Merge(style)
	}
}

// simpleClass reports whether sel is exactly `.name`,
// with name made of letters, digits, '_' and '-'.
func simpleClass(sel string) (string, bool) {
	sel = strings.TrimSpace(sel)
	if len(sel) < 2 || sel[0] != '.' {
		return "", false
	}
	name := sel[1:]
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '_', c == '-':
		default:
			return "", false
		}
	}
	return name, true
}

func stripComments(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:start])
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return b.String()
		}
		s = s[start+2+end+2:]
	}
}
