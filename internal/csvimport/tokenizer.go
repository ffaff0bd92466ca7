package csvimport

import "strings"

const delimiter = ','

// SplitLine splits one CSV line into trimmed cells. A "..." span is one cell
// even when it contains the delimiter, and doubled quotes inside it read as
// a literal quote. Empty cells are kept so header positions line up with
// data rows. A line with an unterminated quote falls back to a plain split.
func SplitLine(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	if cells, ok := scanCells(line); ok {
		return cells
	}

	parts := strings.Split(line, string(delimiter))
	for i, p := range parts {
		parts[i] = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), `"`))
	}
	return parts
}

func scanCells(line string) ([]string, bool) {
	var (
		cells    []string
		cur      strings.Builder
		inQuotes bool
	)
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuotes:
			if r == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					cur.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			cur.WriteRune(r)
		case r == '"' && strings.TrimSpace(cur.String()) == "":
			// opening quote, leading blanks before it are dropped
			cur.Reset()
			inQuotes = true
		case r == delimiter:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, false
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells, true
}

// splitLines splits file content on LF or CRLF.
func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
