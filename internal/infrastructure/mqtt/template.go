package mqtt

import (
	"fmt"
	"strings"
)

// Template is a topic with named placeholders, such as "{mac}/device/sensor".
//
// A placeholder occupies a whole topic level. The same template is used to
// subscribe (Wildcard), to address a concrete device (Concrete) and to read
// identifiers back out of an incoming topic (Extract).
type Template struct {
	raw    string
	levels []level
	names  []string
}

// level is one slash-separated part of a template: either a literal or,
// when name is set, a placeholder.
type level struct {
	literal string
	name    string
}

// ParseTemplate validates s and returns its Template.
//
// Placeholders must be a whole level written as {name}, names must be
// non-empty and unique, and literal levels may not contain + or #.
func ParseTemplate(s string) (Template, error) {
	if s == "" {
		return Template{}, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}

	t := Template{raw: s}
	seen := make(map[string]bool)

	for _, part := range strings.Split(s, "/") {
		if name, ok := placeholderName(part); ok {
			if name == "" || strings.ContainsAny(name, "{}+#") {
				return Template{}, fmt.Errorf("%w: placeholder {%s} in %q", ErrInvalidTemplate, name, s)
			}
			if seen[name] {
				return Template{}, fmt.Errorf("%w: duplicate placeholder {%s} in %q", ErrInvalidTemplate, name, s)
			}
			seen[name] = true
			t.names = append(t.names, name)
			t.levels = append(t.levels, level{name: name})
			continue
		}
		if strings.ContainsAny(part, "{}+#") {
			return Template{}, fmt.Errorf("%w: level %q in %q", ErrInvalidTemplate, part, s)
		}
		t.levels = append(t.levels, level{literal: part})
	}

	return t, nil
}

// MustTemplate is ParseTemplate for package-level constants; it panics on error.
func MustTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func placeholderName(part string) (string, bool) {
	if len(part) >= 2 && part[0] == '{' && part[len(part)-1] == '}' {
		return part[1 : len(part)-1], true
	}
	return "", false
}

// String returns the template as written.
func (t Template) String() string {
	return t.raw
}

// Placeholders returns the placeholder names in order of appearance.
func (t Template) Placeholders() []string {
	return append([]string(nil), t.names...)
}

// Wildcard returns the subscription pattern with every placeholder
// replaced by +.
//
// Example: "{mac}/device/sensor" -> "+/device/sensor"
func (t Template) Wildcard() string {
	out := make([]string, len(t.levels))
	for i, l := range t.levels {
		if l.name == "" {
			out[i] = l.literal
		} else {
			out[i] = "+"
		}
	}
	return strings.Join(out, "/")
}

// Concrete substitutes values into the template.
//
// Every placeholder needs a non-empty value without topic separators or
// wildcards; otherwise ErrMissingPlaceholder or ErrInvalidTopic is returned.
// Extra keys in values are ignored.
func (t Template) Concrete(values map[string]string) (string, error) {
	out := make([]string, len(t.levels))
	for i, l := range t.levels {
		if l.name == "" {
			out[i] = l.literal
			continue
		}
		v, ok := values[l.name]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: {%s} in %q", ErrMissingPlaceholder, l.name, t.raw)
		}
		if strings.ContainsAny(v, "/+#") {
			return "", fmt.Errorf("%w: value %q for {%s} is not a single topic level", ErrInvalidTopic, v, l.name)
		}
		out[i] = v
	}
	return strings.Join(out, "/"), nil
}

// Extract reads the placeholder values out of a concrete topic. A level
// count mismatch, an empty placeholder level or a differing literal
// returns ErrTemplateMismatch.
func (t Template) Extract(topic string) (map[string]string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != len(t.levels) {
		return nil, fmt.Errorf("%w: %q against %q", ErrTemplateMismatch, topic, t.raw)
	}

	values := make(map[string]string, len(t.names))
	for i, l := range t.levels {
		if l.name == "" {
			if parts[i] != l.literal {
				return nil, fmt.Errorf("%w: %q against %q", ErrTemplateMismatch, topic, t.raw)
			}
			continue
		}
		if parts[i] == "" {
			return nil, fmt.Errorf("%w: empty {%s} in %q", ErrTemplateMismatch, l.name, topic)
		}
		values[l.name] = parts[i]
	}
	return values, nil
}

// Value extracts a single placeholder from topic.
//
// Example: MustTemplate("{mac}/status").Value("AA:BB/status", "mac") -> "AA:BB"
func (t Template) Value(topic, name string) (string, error) {
	values, err := t.Extract(topic)
	if err != nil {
		return "", err
	}
	v, ok := values[name]
	if !ok {
		return "", fmt.Errorf("%w: {%s} not in %q", ErrMissingPlaceholder, name, t.raw)
	}
	return v, nil
}
