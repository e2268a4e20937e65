// Package loader decodes import session sources into records.
//
// A source is referenced by the session metadata's SourceRef, resolved
// against a base directory and decoded by file extension: CSV (the
// default), TSV, or JSON. The loader is deliberately forgiving about
// file contents - ragged rows, stray quotes, BOMs, and invalid UTF-8
// are repaired rather than rejected - because the whole point of a
// recovery session is working with data that already failed a clean
// import. Only structural problems (unreadable file, no data rows,
// undecodable JSON) produce errors, and the session engine responds to
// those by serving its built-in dataset.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/remedyhq/remedy/internal/recovery"
	"github.com/remedyhq/remedy/internal/store"
)

// DefaultMaxSourceBytes caps how much of a source file is read.
const DefaultMaxSourceBytes = 32 << 20 // 32MB

// ErrSourceTooLarge is returned when a source exceeds the byte cap.
var ErrSourceTooLarge = errors.New("source file too large")

// ErrNoRecords is returned when a source decodes to zero data rows.
var ErrNoRecords = errors.New("source contains no data rows")

// utf8BOM is prepended by many Windows tools that export CSV.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ctxCheckInterval is how many rows decode between cancellation checks.
const ctxCheckInterval = 1000

// FileLoader reads session sources from a directory tree.
type FileLoader struct {
	baseDir  string
	maxBytes int64
}

// NewFileLoader creates a loader rooted at baseDir. Source references
// resolve relative to it and may not escape it.
func NewFileLoader(baseDir string) *FileLoader {
	return &FileLoader{
		baseDir:  baseDir,
		maxBytes: DefaultMaxSourceBytes,
	}
}

// WithMaxBytes overrides the source size cap. Non-positive values keep
// the default.
func (l *FileLoader) WithMaxBytes(n int64) *FileLoader {
	if n > 0 {
		l.maxBytes = n
	}
	return l
}

// Load reads and decodes the source referenced by meta. It implements
// the session engine's loader contract: any error means the caller
// falls back to substitute data, so errors here describe the problem
// for logs rather than for users.
func (l *FileLoader) Load(ctx context.Context, meta *store.SessionMeta) ([]*recovery.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.resolve(meta.SourceRef)
	if err != nil {
		return nil, err
	}

	data, err := l.readCapped(path)
	if err != nil {
		return nil, err
	}
	data = normalizeBytes(data)

	var records []*recovery.Record
	switch detectFormat(meta) {
	case formatJSON:
		records, err = decodeJSON(ctx, data)
	case formatTSV:
		records, err = decodeSeparated(ctx, data, '\t')
	default:
		records, err = decodeSeparated(ctx, data, ',')
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// resolve joins ref onto the base directory and rejects references that
// escape it.
func (l *FileLoader) resolve(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", errors.New("empty source reference")
	}

	path := filepath.Join(l.baseDir, filepath.FromSlash(ref))
	base := filepath.Clean(l.baseDir)
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("source reference escapes base directory: %s", ref)
	}
	return path, nil
}

// readCapped reads the file, erroring past the size cap instead of
// truncating silently.
func (l *FileLoader) readCapped(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, l.maxBytes)
	}
	return data, nil
}

// normalizeBytes strips a UTF-8 BOM and repairs invalid UTF-8 so the
// decoders never see broken encoding.
func normalizeBytes(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("?"))
	}
	return data
}

type sourceFormat int

const (
	formatCSV sourceFormat = iota
	formatTSV
	formatJSON
)

// detectFormat picks a decoder from the source reference's extension,
// falling back to the display file name, then to CSV.
func detectFormat(meta *store.SessionMeta) sourceFormat {
	ext := strings.ToLower(filepath.Ext(meta.SourceRef))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(meta.FileName))
	}
	switch ext {
	case ".json":
		return formatJSON
	case ".tsv":
		return formatTSV
	default:
		return formatCSV
	}
}

// decodeSeparated decodes delimiter-separated data. The first row is
// the header; header names are normalized (trimmed, lowercased) so the
// validation rules match regardless of export casing. Ragged rows are
// tolerated: short rows leave trailing fields absent, long rows drop
// the unnamed overflow.
func decodeSeparated(ctx context.Context, data []byte, comma rune) ([]*recovery.Record, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = normalizeField(h)
	}

	var records []*recovery.Record
	for row := 0; ; row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}

		rec := recovery.NewRecord()
		for i, field := range fields {
			if field == "" {
				continue
			}
			if i >= len(cells) {
				rec.Set(field, recovery.AbsentValue())
				continue
			}
			rec.Set(field, inferScalar(cells[i]))
		}
		records = append(records, rec)
	}
	return records, nil
}

// decodeJSON decodes a top-level array of objects, preserving each
// object's field order. Field names are normalized like CSV headers.
func decodeJSON(ctx context.Context, data []byte) ([]*recovery.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, errors.New("json source must be an array of objects")
	}

	var records []*recovery.Record
	for row := 0; dec.More(); row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		var rec recovery.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode json object %d: %w", row, err)
		}
		records = append(records, normalizeRecord(&rec))
	}
	return records, nil
}

// normalizeRecord rebuilds a record with normalized field names,
// keeping field order. Later duplicates of a normalized name win, which
// matches how repeated CSV headers behave.
func normalizeRecord(rec *recovery.Record) *recovery.Record {
	out := recovery.NewRecord()
	for _, f := range rec.Fields() {
		name := normalizeField(f)
		if name == "" {
			continue
		}
		out.Set(name, rec.Get(f))
	}
	return out
}

// normalizeField canonicalizes a header or key name.
func normalizeField(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// inferScalar gives delimiter-separated cells, which arrive as bare
// text, a scalar kind: empty cells are absent, recognizable booleans
// and numbers get their native kind, everything else stays a string.
// This is what makes the type-shape rules (a numeric SKU, say) able to
// fire on CSV data at all.
func inferScalar(cell string) recovery.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return recovery.AbsentValue()
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return recovery.BoolValue(true)
	case "false":
		return recovery.BoolValue(false)
	}

	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return recovery.NumberValue(n)
	}

	return recovery.StringValue(cell)
}
