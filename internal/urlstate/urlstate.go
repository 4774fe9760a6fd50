// Package urlstate is the addressable view state: a query-string shaped
// key/value bag a table view can be shared and restored from.
package urlstate

import "net/url"

// Store wraps url.Values with single-value semantics. OnChange, when set,
// fires after every mutation with the encoded form.
type Store struct {
	values   url.Values
	OnChange func(encoded string)
}

// New returns an empty store.
func New() *Store {
	return &Store{values: url.Values{}}
}

// Parse builds a store from an encoded query string.
func Parse(query string) (*Store, error) {
	v, err := url.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	return &Store{values: v}, nil
}

// Get returns the value for key and whether it is present.
func (s *Store) Get(key string) (string, bool) {
	if !s.values.Has(key) {
		return "", false
	}
	return s.values.Get(key), true
}

// Set stores a single value for key.
func (s *Store) Set(key, value string) {
	s.values.Set(key, value)
	s.notify()
}

// Delete removes key; absence means "no value", never an empty string.
func (s *Store) Delete(key string) {
	s.values.Del(key)
	s.notify()
}

// Encode returns the canonical query-string form.
func (s *Store) Encode() string {
	return s.values.Encode()
}

// Values returns a copy of the underlying values.
func (s *Store) Values() url.Values {
	out := url.Values{}
	for k, vs := range s.values {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func (s *Store) notify() {
	if s.OnChange != nil {
		s.OnChange(s.Encode())
	}
}
