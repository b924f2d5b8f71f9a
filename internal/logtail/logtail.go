package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count, next := 0, 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count < maxLines {
		copy(lines, ring[:count])
		return lines, nil
	}
	for i := range lines {
		lines[i] = ring[(next+i)%maxLines]
	}
	return lines, nil
}

// Attr is a key/value pair from a log record.
type Attr struct {
	Key   string
	Value string
}

// Entry is one parsed log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   []Attr
	Raw     string
}

// Attr returns the value of key, or "".
func (e Entry) Attr(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// Parse splits a slog text-handler line (key=value pairs, values optionally
// quoted) into an Entry. Lines that are not key=value records come back with
// only Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	pairs, ok := splitPairs(line)
	if !ok {
		entry.Message = strings.TrimSpace(line)
		return entry
	}
	for _, p := range pairs {
		switch p.Key {
		case "time":
			if t, err := time.Parse(time.RFC3339Nano, p.Value); err == nil {
				entry.Time = t
			}
		case "level":
			entry.Level = strings.ToUpper(p.Value)
		case "msg":
			entry.Message = p.Value
		default:
			entry.Attrs = append(entry.Attrs, p)
		}
	}
	return entry
}

// ParseLines parses each line.
func ParseLines(lines []string) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, Parse(line))
	}
	return entries
}

func splitPairs(line string) ([]Attr, bool) {
	var pairs []Attr
	rest := strings.TrimSpace(line)
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 || strings.ContainsAny(rest[:eq], " \t\"") {
			return nil, false
		}
		key := rest[:eq]
		rest = rest[eq+1:]

		var value string
		if strings.HasPrefix(rest, `"`) {
			end := closingQuote(rest)
			if end < 0 {
				return nil, false
			}
			unquoted, err := strconv.Unquote(rest[:end+1])
			if err != nil {
				return nil, false
			}
			value = unquoted
			rest = rest[end+1:]
		} else {
			end := strings.IndexAny(rest, " \t")
			if end < 0 {
				end = len(rest)
			}
			value = rest[:end]
			rest = rest[end:]
		}
		pairs = append(pairs, Attr{Key: key, Value: value})
		rest = strings.TrimLeft(rest, " \t")
	}
	return pairs, len(pairs) > 0
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
