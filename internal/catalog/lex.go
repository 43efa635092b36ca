package catalog

// mask returns a copy of sql in which the interiors of string literals,
// quoted identifiers and dollar-quoted bodies are blanked, and comments are
// removed entirely. Byte offsets are preserved, so structural characters
// (';', ',', parentheses, keywords) found in the mask can be used to slice
// the original text.
func mask(sql string) []byte {
	out := []byte(sql)
	n := len(out)
	blank := func(from, to int) {
		for k := from; k < to && k < n; k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	for i := 0; i < n; {
		c := sql[i]
		switch {
		case c == '-' && i+1 < n && sql[i+1] == '-':
			end := i
			for end < n && sql[end] != '\n' {
				end++
			}
			blank(i, end)
			i = end
		case c == '/' && i+1 < n && sql[i+1] == '*':
			end := i + 2
			for end+1 < n && (sql[end] != '*' || sql[end+1] != '/') {
				end++
			}
			end += 2
			if end > n {
				end = n
			}
			blank(i, end)
			i = end
		case c == '\'' || c == '"' || c == '`':
			// backslash escapes only exist in E'...' strings; standard
			// strings end at the first undoubled quote
			escapes := c == '\'' && i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e') &&
				(i < 2 || !isIdentByte(sql[i-2]))
			end := i + 1
			for end < n {
				if sql[end] == c {
					// doubled quote is an escaped quote
					if end+1 < n && sql[end+1] == c {
						end += 2
						continue
					}
					break
				}
				if escapes && sql[end] == '\\' && end+1 < n {
					end += 2
					continue
				}
				end++
			}
			blank(i+1, end)
			i = end + 1
		case c == '$' && (i == 0 || !isIdentByte(sql[i-1])):
			tagEnd := i + 1
			for tagEnd < n && isIdentByte(sql[tagEnd]) && sql[tagEnd] != '$' {
				tagEnd++
			}
			if tagEnd >= n || sql[tagEnd] != '$' {
				i++
				continue
			}
			tag := sql[i : tagEnd+1]
			bodyStart := tagEnd + 1
			end := indexFrom(sql, tag, bodyStart)
			if end < 0 {
				blank(bodyStart, n)
				i = n
				continue
			}
			blank(bodyStart, end)
			i = end + len(tag)
		default:
			i++
		}
	}
	return out
}

// topLevel blanks everything nested inside parentheses of a masked
// statement, leaving only depth-zero text.
func topLevel(masked []byte) []byte {
	out := make([]byte, len(masked))
	depth := 0
	for i, c := range masked {
		switch {
		case c == '(':
			depth++
			out[i] = ' '
		case c == ')':
			if depth > 0 {
				depth--
			}
			out[i] = ' '
		case depth > 0:
			out[i] = ' '
		default:
			out[i] = c
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func indexFrom(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
