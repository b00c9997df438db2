package vocab

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// seedMarker matches a seeded reference such as #1$$ or #1|2$$ at the
// start of a string. A '#' that begins one is content, not a comment.
var seedMarker = regexp.MustCompile(`^#[0-9|]+\$\$`)

// StripComment truncates line at the first '#' that does not open a seed
// marker and trims surrounding whitespace.
func StripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if seedMarker.MatchString(line[i:]) {
			continue
		}
		return strings.TrimSpace(line[:i])
	}
	return strings.TrimSpace(line)
}

// parseLines reads a flat list: one candidate per line, blank lines and
// comments dropped, order kept.
func parseLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line = StripComment(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
