package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/factory"
)

func TestTraceLogger_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewTraceLogger(&buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	f, err := factory.New(factory.Config{Seed: 11, RobotCap: 4}, nil)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if err := l.WriteHeader(protocol.HeaderLine{
		Seed:          11,
		TickSeconds:   f.Config().TickSeconds,
		RobotCap:      f.Config().RobotCap,
		InitialRobots: f.Config().InitialRobots,
		CatalogDigest: f.Catalog().Digest,
	}); err != nil {
		t.Fatalf("header: %v", err)
	}
	f.SetPassLogger(l)
	for i := 0; i < 25; i++ {
		if _, err := f.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	final := f.StateDigest()
	if err := l.WriteEnd(protocol.EndLine{Ticks: f.CurrentTick(), Digest: final}); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	tr, err := ReadTrace(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tr.Header.Type != protocol.TypeHeader || tr.Header.ProtocolVersion != protocol.Version || tr.Header.Seed != 11 {
		t.Fatalf("unexpected header: %+v", tr.Header)
	}
	if len(tr.Passes) != 25 {
		t.Fatalf("passes: got %d want 25", len(tr.Passes))
	}
	for i, p := range tr.Passes {
		if p.Tick != uint64(i) {
			t.Fatalf("pass %d: tick=%d", i, p.Tick)
		}
		if len(p.Digest) != 64 {
			t.Fatalf("pass %d: digest %q", i, p.Digest)
		}
	}
	if len(tr.Passes[0].Selections) != 2 {
		t.Fatalf("first pass should select for both robots: %+v", tr.Passes[0].Selections)
	}
	if tr.End == nil || tr.End.Digest != final || tr.End.Ticks != 25 {
		t.Fatalf("unexpected end: %+v", tr.End)
	}
}

func TestCreateTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "trace.jsonl.zst")
	l, err := CreateTraceFile(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := l.WriteHeader(protocol.HeaderLine{Seed: 3, TickSeconds: 0.1, RobotCap: 30, InitialRobots: 2}); err != nil {
		t.Fatalf("header: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	tr, err := ReadTraceFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if tr.Header.Seed != 3 || len(tr.Passes) != 0 || tr.End != nil {
		t.Fatalf("unexpected trace: %+v", tr)
	}
}

func TestJSONLZstdWriter_WriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewJSONLZstdWriter(&buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Write(map[string]int{"a": 1}); err == nil {
		t.Fatalf("expected error writing to closed writer")
	}
}

func compress(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	if _, err := enc.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestReadTrace_Rejects(t *testing.T) {
	header := `{"type":"HEADER","protocol_version":"1.0","seed":1,"tick_seconds":0.1,"robot_cap":30,"initial_robots":2,"catalog_digest":""}`
	cases := map[string][]string{
		"pass first":   {`{"type":"PASS","tick":0}`},
		"bad version":  {`{"type":"HEADER","protocol_version":"0.9"}`},
		"two headers":  {header, header},
		"unknown type": {header, `{"type":"NOPE"}`},
		"after end":    {header, `{"type":"END","ticks":0,"digest":""}`, `{"type":"PASS","tick":0}`},
		"bad end code": {header, `{"type":"END","ticks":0,"digest":"","code":"E_WHAT"}`},
		"not json":     {header, `{`},
	}
	for name, lines := range cases {
		if _, err := ReadTrace(bytes.NewReader(compress(t, lines...))); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
