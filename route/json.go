package route

// quoteIntegerKeys rewrites object keys written as bare integers, such as
// {0:"addr"}, into quoted keys. String literals are left untouched.
func quoteIntegerKeys(in []byte) []byte {
	out := make([]byte, 0, len(in)+8) //nolint:mnd // room for a few quotes
	inString := false
	escaped := false
	expectKey := false

	for i := 0; i < len(in); i++ {
		c := in[i]

		if inString {
			out = append(out, c)

			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch {
		case c == '"':
			inString = true
			expectKey = false
		case c == '{' || c == ',':
			expectKey = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		case expectKey && (c == '-' || (c >= '0' && c <= '9')):
			end := i + 1
			for end < len(in) && in[end] >= '0' && in[end] <= '9' {
				end++
			}

			next := end
			for next < len(in) && (in[next] == ' ' || in[next] == '\t' || in[next] == '\n' || in[next] == '\r') {
				next++
			}

			if next < len(in) && in[next] == ':' {
				out = append(out, '"')
				out = append(out, in[i:end]...)
				out = append(out, '"')
				i = end - 1
				expectKey = false

				continue
			}

			expectKey = false
		default:
			expectKey = false
		}

		out = append(out, c)
	}

	return out
}
