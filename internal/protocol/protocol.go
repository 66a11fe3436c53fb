package protocol

import "encoding/json"

const Version = "1.0"

// Trace line types.
const (
	TypeHeader = "HEADER"
	TypePass   = "PASS"
	TypeEnd    = "END"
)

// Event types emitted by the factory.
const (
	EventTaskStarted  = "TASK_STARTED"
	EventTaskFinished = "TASK_FINISHED"
	EventRobotBought  = "ROBOT_BOUGHT"
)

// BaseMessage lets us route trace lines by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// HeaderLine opens a trace. It carries everything needed to rebuild the run.
type HeaderLine struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Seed            int64   `json:"seed"`
	TickSeconds     float64 `json:"tick_seconds"`
	RobotCap        int     `json:"robot_cap"`
	InitialRobots   int     `json:"initial_robots"`
	CatalogDigest   string  `json:"catalog_digest"`
	StartedAt       string  `json:"started_at,omitempty"`
}

type SelectionRef struct {
	RobotID uint64 `json:"robot_id"`
	Kind    string `json:"kind"`
}

type StorageRef struct {
	Currency int `json:"currency"`
	Foo      int `json:"foo"`
	Bar      int `json:"bar"`
	Foobar   int `json:"foobar"`
	Robots   int `json:"robots"`
}

// PassLine records one full pass over the roster.
type PassLine struct {
	Type       string         `json:"type"`
	Tick       uint64         `json:"tick"`
	SimSeconds float64        `json:"sim_seconds"`
	Selections []SelectionRef `json:"selections,omitempty"`
	Storage    StorageRef     `json:"storage"`
	Digest     string         `json:"digest"`
}

// EndLine closes a trace. Code is empty on normal completion.
type EndLine struct {
	Type    string `json:"type"`
	Ticks   uint64 `json:"ticks"`
	Digest  string `json:"digest"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
