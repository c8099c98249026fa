// Package templates resolves named print templates against caller data before
// the content reaches the renderer.
package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Passthrough is the key of the fallback template. It prints data["content"].
const Passthrough = "content"

const passthroughFormat = "{content}"

// ErrMissingPlaceholder matches every *MissingPlaceholderError.
var ErrMissingPlaceholder = errors.New("missing placeholder value")

// ErrMalformed is returned for unbalanced braces in a format string.
var ErrMalformed = errors.New("malformed template")

// MissingPlaceholderError reports a placeholder the caller supplied no value for.
type MissingPlaceholderError struct {
	Template string
	Key      string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("template %q: no value for placeholder %q", e.Template, e.Key)
}

func (e *MissingPlaceholderError) Is(target error) bool {
	return target == ErrMissingPlaceholder
}

var builtin = map[string]string{
	"kanban": "# KANBAN CARD\n\n" +
		"## Title: {title}\n" +
		"Description: {description}\n" +
		"Priority: {priority}\n" +
		"Assignee: {assignee}\n",
	"inquiry": "# INQUIRY FORM\n\n" +
		"Name: {name}\n" +
		"Phone: {phone}\n" +
		"Date: {date}\n" +
		"Notes: {notes}\n",
}

// Registry maps template keys to format strings. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewRegistry returns a registry holding the built-in templates plus extra.
// Entries in extra override built-ins with the same key.
func NewRegistry(extra map[string]string) (*Registry, error) {
	r := &Registry{templates: make(map[string]string, len(builtin)+len(extra))}
	for k, v := range builtin {
		r.templates[k] = v
	}
	for k, v := range extra {
		if err := r.Register(k, v); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a template after checking its syntax.
func (r *Registry) Register(name, format string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("template name is empty")
	}
	if _, err := Placeholders(format); err != nil {
		return fmt.Errorf("template %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[name] = format
	return nil
}

// Lookup returns the format string for name, or the passthrough template if
// name is unknown. found reports whether name itself was registered.
func (r *Registry) Lookup(name string) (format string, found bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if f, ok := r.templates[name]; ok {
		return f, true
	}
	return passthroughFormat, false
}

// Names lists the registered template keys, sorted, passthrough excluded.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.templates))
	for k := range r.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render looks up name and substitutes data into it. An unknown name renders
// the passthrough template, so data["content"] is required in that case.
func (r *Registry) Render(name string, data map[string]any) (string, error) {
	format, found := r.Lookup(name)
	key := name
	if !found {
		key = Passthrough
	}
	return Substitute(key, format, data)
}
