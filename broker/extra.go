package broker

import "github.com/spf13/cast"

// Extra values come from code, YAML or environment variables, so a number
// may arrive as int, float64 or string. These helpers normalise them.

// IntOption returns Extra[key] as an int.
func (c Config) IntOption(key string) (int, bool) {
	v, ok := c.Extra[key]
	if !ok {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolOption returns Extra[key] as a bool.
func (c Config) BoolOption(key string) (bool, bool) {
	v, ok := c.Extra[key]
	if !ok {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// StringOption returns Extra[key] as a non-empty string.
func (c Config) StringOption(key string) (string, bool) {
	v, ok := c.Extra[key]
	if !ok {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil || s == "" {
		return "", false
	}
	return s, true
}
