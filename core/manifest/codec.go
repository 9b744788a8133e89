package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"file-hasher/core/hasher"
)

const (
	fieldSep     = "|"
	headerPrefix = "# Algorithm:"

	minFields = 5
	maxFields = 7

	maxLineSize = 1024 * 1024
)

// Parse reads a manifest. Malformed lines are skipped and returned as
// warnings; the returned error is reserved for read failures.
func Parse(r io.Reader) (*Manifest, []*ParseError, error) {
	m := New("")
	var warnings []*ParseError

	br := bufio.NewReaderSize(r, 64*1024)

	lineNo := 0
	for {
		raw, tooLong, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, warnings, fmt.Errorf("failed to read manifest at line %d: %w", lineNo+1, err)
		}
		lineNo++
		if tooLong {
			warnings = append(warnings, &ParseError{Line: lineNo, Text: string(raw), Reason: fmt.Sprintf("line longer than %d bytes", maxLineSize)})
			continue
		}
		line := strings.TrimRight(string(raw), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if alg, ok := parseHeader(line); ok {
				if !hasher.IsSupported(alg) {
					warnings = append(warnings, &ParseError{Line: lineNo, Text: line, Reason: fmt.Sprintf("unsupported algorithm %q in header", alg)})
					continue
				}
				if m.Algorithm != "" && m.Algorithm != alg {
					warnings = append(warnings, &ParseError{Line: lineNo, Text: line, Reason: fmt.Sprintf("header algorithm %q conflicts with %q", alg, m.Algorithm)})
					continue
				}
				m.Algorithm = alg
			}
			continue
		}

		rec, reason := ParseRecord(line)
		if reason != "" {
			warnings = append(warnings, &ParseError{Line: lineNo, Text: line, Reason: reason})
			continue
		}
		if err := m.Put(rec); err != nil {
			warnings = append(warnings, &ParseError{Line: lineNo, Text: line, Reason: err.Error()})
		}
	}

	return m, warnings, nil
}

// readLine returns the next line without its terminator. A line over
// maxLineSize is drained and reported with tooLong; only its first bytes
// are returned.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && (len(line) > 0 || tooLong) {
				return line, tooLong, nil
			}
			return line, tooLong, err
		}
		if !tooLong {
			if len(line)+len(chunk) > maxLineSize {
				tooLong = true
				line = line[:min(len(line), 64)]
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, tooLong, nil
		}
	}
}

// ParseRecord parses a single record line. It returns a non-empty reason
// when the line is malformed.
func ParseRecord(line string) (Record, string) {
	fields := strings.Split(line, fieldSep)
	if len(fields) < minFields || len(fields) > maxFields {
		return Record{}, fmt.Sprintf("expected %d to %d fields, got %d", minFields, maxFields, len(fields))
	}

	alg, err := hasher.Lookup(fields[0])
	if err != nil {
		return Record{}, fmt.Sprintf("unsupported algorithm %q", fields[0])
	}

	digest := strings.ToLower(fields[1])
	if !alg.ValidDigest(digest) {
		return Record{}, fmt.Sprintf("invalid %s digest %q", alg.Name, fields[1])
	}

	if hasParentRef(fields[2]) {
		return Record{}, fmt.Sprintf("subdir %q escapes the tree root", fields[2])
	}
	name := fields[3]
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return Record{}, fmt.Sprintf("invalid filename %q", name)
	}

	size, err := strconv.ParseInt(strings.TrimSpace(fields[4]), 10, 64)
	if err != nil || size < 0 {
		return Record{}, fmt.Sprintf("invalid size %q", fields[4])
	}

	rec := Record{
		Algorithm: alg.Name,
		Digest:    digest,
		Dir:       normalizeDir(fields[2]),
		Name:      name,
		Size:      size,
		Inode:     InodeUnknown,
		Mtime:     MtimeAbsent,
	}
	if len(fields) > 5 {
		rec.Inode = ParseInode(fields[5])
	}
	if len(fields) > 6 {
		rec.Mtime = ParseMtime(fields[6])
	}
	return rec, ""
}

// FormatRecord renders r as a current-format (7 field) line without the
// trailing newline.
func FormatRecord(r Record) string {
	return strings.Join([]string{
		r.Algorithm,
		r.Digest,
		r.Dir,
		r.Name,
		strconv.FormatInt(r.Size, 10),
		r.Inode.String(),
		r.Mtime.String(),
	}, fieldSep)
}

// Serialize writes m in manifest order, preceded by the algorithm header.
func Serialize(w io.Writer, m *Manifest) error {
	bw := bufio.NewWriter(w)
	if m.Algorithm != "" {
		if _, err := fmt.Fprintf(bw, "%s %s\n", headerPrefix, m.Algorithm); err != nil {
			return err
		}
	}
	for _, r := range m.records {
		if _, err := bw.WriteString(FormatRecord(r) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Representable reports whether a relative path can be stored in a manifest
// line without corrupting the format.
func Representable(rel string) bool {
	return !strings.ContainsAny(rel, "|\r\n")
}

func parseHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, headerPrefix) {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, headerPrefix))), true
}

func hasParentRef(dir string) bool {
	for _, part := range strings.Split(dir, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
