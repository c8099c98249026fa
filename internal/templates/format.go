package templates

import (
	"fmt"
	"strings"
)

// Substitute replaces every {key} in format with fmt.Sprint(data[key]). A nil
// value, such as a JSON null, is inserted as an empty string. "{{" and "}}"
// produce literal braces. Values are inserted verbatim and are
// not scanned for further placeholders.
func Substitute(name, format string, data map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(format))

	err := scan(format, func(lit string) {
		b.WriteString(lit)
	}, func(key string) error {
		v, ok := data[key]
		if !ok {
			return &MissingPlaceholderError{Template: name, Key: key}
		}
		if v != nil {
			b.WriteString(fmt.Sprint(v))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Placeholders returns the placeholder keys of format in order of appearance.
func Placeholders(format string) ([]string, error) {
	var keys []string
	err := scan(format, func(string) {}, func(key string) error {
		keys = append(keys, key)
		return nil
	})
	return keys, err
}

func scan(format string, literal func(string), field func(string) error) error {
	for i := 0; i < len(format); {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			literal("{")
			i += 2
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			literal("}")
			i += 2
		case c == '{':
			end := strings.IndexByte(format[i+1:], '}')
			if end < 0 {
				return fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformed, i)
			}
			key := format[i+1 : i+1+end]
			if key == "" || strings.ContainsAny(key, "{ ") {
				return fmt.Errorf("%w: bad placeholder %q at offset %d", ErrMalformed, key, i)
			}
			if err := field(key); err != nil {
				return err
			}
			i += end + 2
		case c == '}':
			return fmt.Errorf("%w: single '}' at offset %d", ErrMalformed, i)
		default:
			next := strings.IndexAny(format[i:], "{}")
			if next < 0 {
				next = len(format) - i
			}
			literal(format[i : i+next])
			i += next
		}
	}
	return nil
}
