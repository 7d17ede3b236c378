package fileutil

import (
	"bufio"
	"bytes"
	"strings"
)

// LineStats holds per-file line classification counts.
type LineStats struct {
	Total   int
	Code    int
	Comment int
	Blank   int
}

// CountLines classifies every line of content as blank, comment, or code.
// Comment detection is structural, not semantic: it recognizes //, #, and
// /* ... */ block spans, which covers the supported extraction languages.
func CountLines(content []byte) LineStats {
	var stats LineStats
	inBlock := false

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Total++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case inBlock:
			stats.Comment++
			if strings.Contains(line, "*/") {
				inBlock = false
			}
		case line == "":
			stats.Blank++
		case strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#"):
			stats.Comment++
		case strings.HasPrefix(line, "/*"):
			stats.Comment++
			if !strings.Contains(line, "*/") {
				inBlock = true
			}
		default:
			stats.Code++
		}
	}
	return stats
}
