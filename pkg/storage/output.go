package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	errs "twcrawler/pkg/errors"
)

// Record is one output line: an expanded id and the survivors found under it
type Record struct {
	ID        int64
	Survivors []int64
}

// OutputLog is the append-only crawl output. Each WriteRecord appends exactly
// one line and syncs it to disk before returning.
type OutputLog struct {
	path    string
	file    *os.File
	records int
	mu      sync.Mutex
}

// OpenOutputLog opens path for appending, creating it and its directory if needed.
// Existing content is kept.
func OpenOutputLog(path string) (*OutputLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create output directory: %v", errs.ErrOutputUnavailable, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrOutputUnavailable, err)
	}

	return &OutputLog{path: path, file: file}, nil
}

// FormatRecord renders a record as `<id> [a, b]`, without the trailing newline
func FormatRecord(id int64, survivors []int64) string {
	return strconv.FormatInt(id, 10) + " " + FormatIDs(survivors)
}

// FormatIDs renders ids in list form: `[a, b]`, or `[]` when empty
func FormatIDs(ids []int64) string {
	var b strings.Builder
	b.WriteString("[")
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	b.WriteString("]")
	return b.String()
}

// WriteRecord appends one line for id
func (o *OutputLog) WriteRecord(id int64, survivors []int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		return fmt.Errorf("%w: output log is closed", errs.ErrOutputUnavailable)
	}

	line := FormatRecord(id, survivors) + "\n"
	if _, err := o.file.WriteString(line); err != nil {
		return fmt.Errorf("%w: failed to write record for %d: %v", errs.ErrOutputUnavailable, id, err)
	}
	if err := o.file.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync output: %v", errs.ErrOutputUnavailable, err)
	}

	o.records++
	return nil
}

// Records returns how many lines this handle has written
func (o *OutputLog) Records() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.records
}

// Path returns the output file path
func (o *OutputLog) Path() string {
	return o.path
}

// Close closes the underlying file. Calling it twice is harmless.
func (o *OutputLog) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	o.file = nil
	return err
}

// ParseRecord parses one output line
func ParseRecord(line string) (Record, error) {
	line = strings.TrimRight(line, "\r\n")

	idPart, listPart, ok := strings.Cut(line, " ")
	if !ok {
		return Record{}, fmt.Errorf("malformed record %q", line)
	}

	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("malformed record id %q: %w", idPart, err)
	}

	if !strings.HasPrefix(listPart, "[") || !strings.HasSuffix(listPart, "]") {
		return Record{}, fmt.Errorf("malformed survivor list %q", listPart)
	}
	inner := strings.TrimSpace(listPart[1 : len(listPart)-1])

	rec := Record{ID: id, Survivors: []int64{}}
	if inner == "" {
		return rec, nil
	}
	for _, part := range strings.Split(inner, ",") {
		// Older logs may carry a long-integer suffix
		part = strings.TrimSuffix(strings.TrimSpace(part), "L")
		s, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("malformed survivor %q: %w", part, err)
		}
		rec.Survivors = append(rec.Survivors, s)
	}
	return rec, nil
}

// ReadRecords parses every line of an output file
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		rec, err := ParseRecord(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	return records, nil
}
