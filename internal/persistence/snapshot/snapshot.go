package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
	Digest  string `json:"digest"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed          int64   `json:"seed"`
	TickSeconds   float64 `json:"tick_seconds"`
	RobotCap      int     `json:"robot_cap"`
	InitialRobots int     `json:"initial_robots"`
	CatalogDigest string  `json:"catalog_digest"`

	// PCG state from MarshalBinary, so a resumed run draws the same stream.
	RNG []byte `json:"rng"`

	Currency     int        `json:"currency"`
	MaxFooID     uint64     `json:"max_foo_id"`
	MaxBarID     uint64     `json:"max_bar_id"`
	Foo          []uint64   `json:"foo"`
	Bar          []uint64   `json:"bar"`
	Foobars      []FoobarV1 `json:"foobars"`
	NextRobotNum uint64     `json:"next_robot_num"`
	Robots       []RobotV1  `json:"robots"`

	Stats StatsV1 `json:"stats"`
}

type FoobarV1 struct {
	FooID uint64 `json:"foo_id"`
	BarID uint64 `json:"bar_id"`
}

type RobotV1 struct {
	ID   uint64      `json:"id"`
	Task *WorkTaskV1 `json:"task,omitempty"`
}

type WorkTaskV1 struct {
	Kind        string     `json:"kind"`
	Target      float64    `json:"target"`
	Elapsed     float64    `json:"elapsed"`
	StartedTick uint64     `json:"started_tick"`
	WorkTicks   int        `json:"work_ticks"`
	HeldFoo     []uint64   `json:"held_foo,omitempty"`
	HeldBar     []uint64   `json:"held_bar,omitempty"`
	HeldFoobars []FoobarV1 `json:"held_foobars,omitempty"`
	HeldCurr    int        `json:"held_currency,omitempty"`
}

type StatsV1 struct {
	Selections       map[string]int `json:"selections"`
	Completed        map[string]int `json:"completed"`
	FoobarsAssembled int            `json:"foobars_assembled"`
	FoobarsSold      int            `json:"foobars_sold"`
	RobotsBought     int            `json:"robots_bought"`
	Earned           int            `json:"earned"`
}

// Encode writes a JSON header line followed by the gob-encoded snapshot,
// all zstd-compressed.
func Encode(w io.Writer, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		_ = enc.Close()
		return err
	}
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func Decode(r io.Reader) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(r)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if h.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header != h {
		return snap, errors.New("header line does not match snapshot body")
	}
	return snap, nil
}

// ReadHeader decodes only the header line.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	dec, err := zstd.NewReader(r)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := Encode(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	defer f.Close()
	return Decode(f)
}
