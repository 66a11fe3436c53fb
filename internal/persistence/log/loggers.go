package log

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/factory"
)

// JSONLZstdWriter writes one JSON document per line into a zstd stream.
// Closing it ends the stream but leaves dst open.
type JSONLZstdWriter struct {
	mu  sync.Mutex
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewJSONLZstdWriter(dst io.Writer) (*JSONLZstdWriter, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &JSONLZstdWriter{
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.enc == nil {
		return os.ErrClosed
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.enc == nil {
		return nil
	}
	err1 := w.w.Flush()
	err2 := w.enc.Close()
	w.enc = nil
	w.w = nil
	if err1 != nil {
		return err1
	}
	return err2
}

// TraceLogger writes a run trace: a header line, one line per pass and an
// end line. It satisfies factory.PassLogger.
type TraceLogger struct {
	w *JSONLZstdWriter
	f *os.File
}

func NewTraceLogger(dst io.Writer) (*TraceLogger, error) {
	w, err := NewJSONLZstdWriter(dst)
	if err != nil {
		return nil, err
	}
	return &TraceLogger{w: w}, nil
}

// CreateTraceFile truncates or creates path. Close also closes the file.
func CreateTraceFile(path string) (*TraceLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	l, err := NewTraceLogger(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	l.f = f
	return l, nil
}

func (l *TraceLogger) WriteHeader(h protocol.HeaderLine) error {
	h.Type = protocol.TypeHeader
	if h.ProtocolVersion == "" {
		h.ProtocolVersion = protocol.Version
	}
	return l.w.Write(h)
}

func (l *TraceLogger) WritePass(e factory.PassLogEntry) error {
	return l.w.Write(PassLineFromEntry(e))
}

func (l *TraceLogger) WriteEnd(e protocol.EndLine) error {
	e.Type = protocol.TypeEnd
	return l.w.Write(e)
}

func (l *TraceLogger) Close() error {
	err := l.w.Close()
	if l.f != nil {
		if cerr := l.f.Close(); err == nil {
			err = cerr
		}
		l.f = nil
	}
	return err
}

func PassLineFromEntry(e factory.PassLogEntry) protocol.PassLine {
	line := protocol.PassLine{
		Type:       protocol.TypePass,
		Tick:       e.Tick,
		SimSeconds: e.SimSeconds,
		Storage: protocol.StorageRef{
			Currency: e.Storage.Currency,
			Foo:      e.Storage.Foo,
			Bar:      e.Storage.Bar,
			Foobar:   e.Storage.Foobar,
			Robots:   e.Storage.Robots,
		},
		Digest: e.Digest,
	}
	for _, s := range e.Selections {
		line.Selections = append(line.Selections, protocol.SelectionRef{RobotID: s.RobotID, Kind: string(s.Kind)})
	}
	return line
}
