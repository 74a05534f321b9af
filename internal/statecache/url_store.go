package statecache

import (
	"net/url"
	"strings"
	"sync"
)

type location struct {
	path   string
	values url.Values
}

// URLStore is an in-process location made of a path and query values, with
// browser-like history. It is shared by every list in the process.
type URLStore struct {
	mu      sync.Mutex
	entries []location
	index   int
	version uint64
}

// NewURLStore starts at path with no query
func NewURLStore(path string) *URLStore {
	return &URLStore{entries: []location{{path: path, values: url.Values{}}}}
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (s *URLStore) current() location {
	return s.entries[s.index]
}

func (s *URLStore) push(loc location) {
	s.entries = append(s.entries[:s.index+1], loc)
	s.index = len(s.entries) - 1
}

// Values returns the query of the current location
func (s *URLStore) Values() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.current().values)
}

// Apply sets the query of the current location
func (s *URLStore) Apply(values url.Values, mode NavigationMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := location{path: s.current().path, values: cloneValues(values)}
	if mode == Replace {
		s.entries[s.index] = loc
		return nil
	}
	s.push(loc)
	return nil
}

// Version counts navigations that did not come from Apply
func (s *URLStore) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Path returns the path of the current location
func (s *URLStore) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().path
}

// Navigate moves to a new location
func (s *URLStore) Navigate(path string, values url.Values, mode NavigationMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc := location{path: path, values: cloneValues(values)}
	if loc.values == nil {
		loc.values = url.Values{}
	}
	if mode == Replace {
		s.entries[s.index] = loc
	} else {
		s.push(loc)
	}
	s.version++
}

// Back moves one entry back in history. It reports false at the start.
func (s *URLStore) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == 0 {
		return false
	}
	s.index--
	s.version++
	return true
}

// Forward moves one entry forward in history. It reports false at the end.
func (s *URLStore) Forward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.entries)-1 {
		return false
	}
	s.index++
	s.version++
	return true
}

// Len returns the number of history entries
func (s *URLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Encode renders the current location as a shareable path?query string
func (s *URLStore) Encode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.current()
	if len(loc.values) == 0 {
		return loc.path
	}
	return loc.path + "?" + loc.values.Encode()
}

// Open navigates to a location produced by Encode
func (s *URLStore) Open(raw string, mode NavigationMode) error {
	path, rawQuery, _ := strings.Cut(raw, "?")
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return err
	}
	s.Navigate(path, values, mode)
	return nil
}
