// Package catalog holds the palette of node types a user can drop on the
// canvas, and the provider that fetches it once per session.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Field describes one configurable input of a node type.
type Field struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Required bool   `json:"required,omitempty" yaml:"required"`
	Default  any    `json:"default,omitempty" yaml:"default"`
}

// Entry is one node type in the palette.
type Entry struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Type        string   `json:"type,omitempty" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
	Fields      []Field  `json:"fields,omitempty" yaml:"fields"`
}

// DragPayload returns the JSON placed on the drag-data channel when the user
// starts dragging this entry from the palette.
func (e Entry) DragPayload() ([]byte, error) {
	return json.Marshal(e)
}

// ErrDuplicateEntry is returned when two entries share an id.
var ErrDuplicateEntry = errors.New("duplicate catalog entry")

// Catalog is an immutable set of entries with a tag index. Only the usage
// counters change after construction.
type Catalog struct {
	entries map[string]Entry
	order   []string
	tags    map[string][]string

	mu    sync.Mutex
	usage map[string]int
}

// Empty returns a catalog with no entries.
func Empty() *Catalog {
	return &Catalog{
		entries: map[string]Entry{},
		tags:    map[string][]string{},
		usage:   map[string]int{},
	}
}

// New builds a catalog, rejecting entries without an id or display name and
// duplicate ids. All problems are reported together.
func New(entries []Entry) (*Catalog, error) {
	c := Empty()
	var errs []error
	for i, e := range entries {
		switch {
		case strings.TrimSpace(e.ID) == "":
			errs = append(errs, fmt.Errorf("entry %d: id is required", i))
			continue
		case strings.TrimSpace(e.DisplayName) == "":
			errs = append(errs, fmt.Errorf("entry %q: displayName is required", e.ID))
			continue
		}
		if _, dup := c.entries[e.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateEntry, e.ID))
			continue
		}
		c.entries[e.ID] = e
		c.order = append(c.order, e.ID)
		for _, tag := range e.Tags {
			c.tags[tag] = append(c.tags[tag], e.ID)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Get returns the entry with the given id and counts the lookup.
func (c *Catalog) Get(id string) (Entry, bool) {
	e, ok := c.entries[id]
	if ok {
		c.mu.Lock()
		c.usage[id]++
		c.mu.Unlock()
	}
	return e, ok
}

// Usage returns how many times id was looked up with Get.
func (c *Catalog) Usage(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage[id]
}

// Entries returns entries in declaration order. With a tag, only entries
// carrying that tag are returned.
func (c *Catalog) Entries(tag string) []Entry {
	ids := c.order
	if tag != "" {
		ids = c.tags[tag]
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.entries[id])
	}
	return out
}

// Tags returns every tag in sorted order.
func (c *Catalog) Tags() []string {
	out := make([]string, 0, len(c.tags))
	for tag := range c.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
