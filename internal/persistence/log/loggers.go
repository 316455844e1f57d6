package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JSONLZstdWriter appends JSON lines to zstd files rotated by UTC hour.
type JSONLZstdWriter struct {
	baseDir string
	prefix  string
	now     func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{
		baseDir: baseDir,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	dir := filepath.Dir(w.pathForHour(hour))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// Path returns the file the next write lands in.
func (w *JSONLZstdWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathForHour(w.now().UTC().Format("2006-01-02-15"))
}

func (w *JSONLZstdWriter) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}


// MutationEntry is one applied table change.
type MutationEntry struct {
	PassID   string `json:"pass_id"`
	Trigger  string `json:"trigger"`
	Op       string `json:"op"`
	RecipeID string `json:"recipe_id"`
	Type     string `json:"type"`
	Rule     string `json:"rule"`
	Content  string `json:"content,omitempty"`
	Shape    string `json:"shape,omitempty"`
	At       string `json:"at"`
}

// PassEntry summarises one processing pass.
type PassEntry struct {
	PassID     string         `json:"pass_id"`
	Trigger    string         `json:"trigger"`
	StartedAt  string         `json:"started_at"`
	DurationMS int64          `json:"duration_ms"`
	Added      int            `json:"added"`
	Removed    int            `json:"removed"`
	Unchanged  int            `json:"unchanged"`
	Skipped    int            `json:"skipped"`
	Failures   []string       `json:"failures,omitempty"`
	TableSize  int            `json:"table_size"`
	Metals     int            `json:"metals"`
	Gems       int            `json:"gems"`
	Rules      map[string]int `json:"rules,omitempty"`
}

// MutationLogger writes mutation JSONL entries (compressed).
type MutationLogger struct{ w *JSONLZstdWriter }

func NewMutationLogger(dataDir string) *MutationLogger {
	return &MutationLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "mutations"), "mutations")}
}

func (l *MutationLogger) WriteMutation(v MutationEntry) error { return l.w.Write(v) }
func (l *MutationLogger) Close() error                         { return l.w.Close() }

// PassLogger writes one JSONL entry per pass (compressed).
type PassLogger struct{ w *JSONLZstdWriter }

func NewPassLogger(dataDir string) *PassLogger {
	return &PassLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "passes"), "passes")}
}

func (l *PassLogger) WritePass(v PassEntry) error { return l.w.Write(v) }
func (l *PassLogger) Close() error                { return l.w.Close() }

// ReadJSONL decodes every line of a compressed log file into fn, stopping at the first error.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		if err := fn(sc.Bytes()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadMutations returns all mutation entries in a log file.
func ReadMutations(path string) ([]MutationEntry, error) {
	var out []MutationEntry
	err := ReadJSONL(path, func(line []byte) error {
		var e MutationEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("decode mutation: %w", err)
		}
		out = append(out, e)
		return nil
	})
	return out, err
}
