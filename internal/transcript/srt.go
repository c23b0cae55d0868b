// Package transcript parses SubRip (.srt) subtitle files into ordered,
// timestamped entries. Parsing is a pure function over text; malformed
// blocks are skipped rather than failing the file.
package transcript

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Entry is one subtitle block: sequence index, start/end timecodes, text.
type Entry struct {
	Index int
	Start string // "00:05:30,000"
	End   string
	Text  string
}

var timeLineRegex = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2},\d{3})`)

var blockSplitRegex = regexp.MustCompile(`\n\s*\n`)

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	return Parse(string(data)), nil
}

// Parse parses SRT content. Blocks missing a sequence number or a valid
// time line are skipped.
func Parse(content string) []Entry {
	var entries []Entry

	blocks := blockSplitRegex.Split(strings.TrimSpace(content), -1)
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}

		m := timeLineRegex.FindStringSubmatch(strings.TrimSpace(lines[1]))
		if m == nil {
			continue
		}

		// Text may span multiple lines
		text := strings.TrimSpace(strings.Join(lines[2:], " "))

		entries = append(entries, Entry{
			Index: index,
			Start: m[1],
			End:   m[2],
			Text:  text,
		})
	}

	return entries
}

// ToPlaintext flattens entries into one text block, optionally prefixing
// each line with its start timecode so downstream stages can anchor video
// markers to the source.
func ToPlaintext(entries []Entry, includeTimestamps bool) string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		if includeTimestamps {
			lines = append(lines, fmt.Sprintf("[%s] %s", entry.Start, entry.Text))
		} else {
			lines = append(lines, entry.Text)
		}
	}
	return strings.Join(lines, "\n")
}
