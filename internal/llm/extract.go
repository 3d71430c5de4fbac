package llm

// ExtractJSONObject returns the first balanced JSON object substring of s.
// Models often wrap JSON in prose or markdown fences; the caller only needs
// the object itself. The second return value is false when no balanced object
// exists.
func ExtractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}

			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}

			depth++
		case '}':
			if depth == 0 {
				continue
			}

			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
