package exchange

import (
	"net/http"
	"sort"
	"strings"
)

// Header is an ordered multimap of header names to values.
// Names are compared case-insensitively and keep the spelling of their first
// insertion. Values for a name keep insertion order. The zero value is empty
// and ready to use.
type Header struct {
	entries []headerEntry
}

type headerEntry struct {
	name   string
	values []string
}

// HeaderFrom builds a Header from an http.Header. Names are added in sorted
// order since http.Header does not preserve wire order.
func HeaderFrom(src http.Header) Header {
	names := make([]string, 0, len(src))
	for name := range src {
		names = append(names, name)
	}
	sort.Strings(names)

	var h Header
	for _, name := range names {
		for _, v := range src[name] {
			h.Add(name, v)
		}
	}
	return h
}

func (h *Header) index(name string) int {
	for i := range h.entries {
		if strings.EqualFold(h.entries[i].name, name) {
			return i
		}
	}
	return -1
}

// Add appends value to the values of name.
func (h *Header) Add(name, value string) {
	if i := h.index(name); i >= 0 {
		h.entries[i].values = append(h.entries[i].values, value)
		return
	}
	h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
}

// Set replaces all values of name. The position of an existing name is kept.
func (h *Header) Set(name string, values ...string) {
	vals := append([]string(nil), values...)
	if i := h.index(name); i >= 0 {
		h.entries[i].values = vals
		return
	}
	h.entries = append(h.entries, headerEntry{name: name, values: vals})
}

// Del removes name and all of its values.
func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
}

// Get returns the first value of name, or "" if absent.
func (h Header) Get(name string) string {
	if i := h.index(name); i >= 0 && len(h.entries[i].values) > 0 {
		return h.entries[i].values[0]
	}
	return ""
}

// Values returns a copy of all values of name.
func (h Header) Values(name string) []string {
	if i := h.index(name); i >= 0 {
		return append([]string(nil), h.entries[i].values...)
	}
	return nil
}

// Has reports whether name is present.
func (h Header) Has(name string) bool {
	return h.index(name) >= 0
}

// Names returns header names in insertion order.
func (h Header) Names() []string {
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of distinct names.
func (h Header) Len() int {
	return len(h.entries)
}

// Each calls fn for every name in insertion order.
func (h Header) Each(fn func(name string, values []string)) {
	for _, e := range h.entries {
		fn(e.name, e.values)
	}
}

// Clone returns a deep copy.
func (h Header) Clone() Header {
	out := Header{entries: make([]headerEntry, len(h.entries))}
	for i, e := range h.entries {
		out.entries[i] = headerEntry{name: e.name, values: append([]string(nil), e.values...)}
	}
	return out
}

// HTTP converts the multimap to an http.Header, keeping every value.
func (h Header) HTTP() http.Header {
	out := make(http.Header, len(h.entries))
	for _, e := range h.entries {
		key := http.CanonicalHeaderKey(e.name)
		out[key] = append(out[key], e.values...)
	}
	return out
}
