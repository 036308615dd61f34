package authn

// Claims is the raw claim set extracted from a verified token.
type Claims map[string]any

// Subject returns the "sub" claim, or "".
func (c Claims) Subject() string {
	return c.String("sub")
}

// String returns the named claim if it is a non-empty string, or "".
func (c Claims) String(name string) string {
	if v, ok := c[name].(string); ok {
		return v
	}

	return ""
}

// Bool returns the named claim if it is an explicit boolean, or false.
func (c Claims) Bool(name string) bool {
	v, ok := c[name].(bool)
	return ok && v
}

// Strings normalizes the named claim into a string slice.
// Accepts a single string, a []string, or a []any of strings.
func (c Claims) Strings(name string) []string {
	switch v := c[name].(type) {
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	case []string:
		return v
	case []any:
		var out []string

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// Map returns the named claim if it is a JSON object, or nil.
func (c Claims) Map(name string) map[string]any {
	if v, ok := c[name].(map[string]any); ok {
		return v
	}

	return nil
}
