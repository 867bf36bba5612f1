package schema

import (
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Delimiter separates fields in generator output.
const Delimiter = '|'

// DateLayout is the date format written by dbgen.
const DateLayout = "2006-01-02"

// SplitRecord strips a single trailing delimiter from line and splits the
// rest into fields. dbgen terminates every record with "|", which would
// otherwise produce an empty last field.
func SplitRecord(line string, delim byte) []string {
	line = strings.TrimSuffix(line, "\r")
	if n := len(line); n > 0 && line[n-1] == delim {
		line = line[:n-1]
	}
	return strings.Split(line, string(delim))
}

// ParseDate32 parses a dbgen date into days since the epoch.
func ParseDate32(s string) (arrow.Date32, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return 0, err
	}
	return arrow.Date32FromTime(t), nil
}
