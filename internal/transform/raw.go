package transform

// Helpers for reading the weakly-typed issue tree. Every lookup tolerates a
// missing key or an unexpected type and returns a zero value instead of
// panicking, so a malformed record surfaces as a validation failure rather
// than aborting a batch.

func mapAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	child, _ := m[key].(map[string]any)
	return child
}

func stringAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func sliceAt(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	s, _ := m[key].([]any)
	return s
}

// stringsAt reads a list of strings, dropping entries of any other type.
// The result is never nil.
func stringsAt(m map[string]any, key string) []string {
	out := []string{}
	for _, v := range sliceAt(m, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// resolveName extracts a human-readable name from a Jira object field
// (user, status, priority, issuetype, project): displayName first, then
// name, else "".
func resolveName(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	if s := stringAt(m, "displayName"); s != "" {
		return s
	}
	return stringAt(m, "name")
}
