package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"foobartory.dev/internal/protocol"
)

type Trace struct {
	Header protocol.HeaderLine
	Passes []protocol.PassLine
	// End is nil when the trace was cut short.
	End *protocol.EndLine
}

// ReadTrace decodes a whole trace. The first line must be a header with a
// matching protocol version.
func ReadTrace(r io.Reader) (Trace, error) {
	var tr Trace
	dec, err := zstd.NewReader(r)
	if err != nil {
		return tr, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		base, err := protocol.DecodeBase(line)
		if err != nil {
			return tr, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if lineNo == 1 && base.Type != protocol.TypeHeader {
			return tr, fmt.Errorf("line 1: want %s, got %q", protocol.TypeHeader, base.Type)
		}
		if tr.End != nil {
			return tr, fmt.Errorf("line %d: data after %s", lineNo, protocol.TypeEnd)
		}
		switch base.Type {
		case protocol.TypeHeader:
			if lineNo != 1 {
				return tr, fmt.Errorf("line %d: duplicate header", lineNo)
			}
			if base.ProtocolVersion != protocol.Version {
				return tr, fmt.Errorf("protocol version mismatch: trace=%s want=%s", base.ProtocolVersion, protocol.Version)
			}
			if err := json.Unmarshal(line, &tr.Header); err != nil {
				return tr, fmt.Errorf("line %d: header: %w", lineNo, err)
			}
		case protocol.TypePass:
			var p protocol.PassLine
			if err := json.Unmarshal(line, &p); err != nil {
				return tr, fmt.Errorf("line %d: pass: %w", lineNo, err)
			}
			tr.Passes = append(tr.Passes, p)
		case protocol.TypeEnd:
			var e protocol.EndLine
			if err := json.Unmarshal(line, &e); err != nil {
				return tr, fmt.Errorf("line %d: end: %w", lineNo, err)
			}
			if !protocol.IsKnownCode(e.Code) {
				return tr, fmt.Errorf("line %d: unknown end code %q", lineNo, e.Code)
			}
			tr.End = &e
		default:
			return tr, fmt.Errorf("line %d: unknown type %q", lineNo, base.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return tr, err
	}
	if lineNo == 0 {
		return tr, errors.New("empty trace")
	}
	return tr, nil
}

func ReadTraceFile(path string) (Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return Trace{}, err
	}
	defer f.Close()
	return ReadTrace(f)
}
