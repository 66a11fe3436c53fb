package protocol_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"foobartory.dev/internal/protocol"
)

const digest64 = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	raw, err := protocol.Schemas.ReadFile("schemas/" + name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(string(raw))); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	s, err := c.Compile(name)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

func decode(t *testing.T, b []byte) any {
	t.Helper()
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return v
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestSchemas_ValidateSamples(t *testing.T) {
	headerSchema := compile(t, "header.schema.json")
	passSchema := compile(t, "pass.schema.json")
	endSchema := compile(t, "end.schema.json")

	validate := func(s *jsonschema.Schema, raw string) {
		t.Helper()
		if err := s.Validate(decode(t, []byte(raw))); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	validate(headerSchema, `{
	  "type":"HEADER",
	  "protocol_version":"1.0",
	  "seed":1337,
	  "tick_seconds":0.1,
	  "robot_cap":30,
	  "initial_robots":2,
	  "catalog_digest":"`+digest64+`"
	}`)

	validate(passSchema, `{
	  "type":"PASS",
	  "tick":0,
	  "sim_seconds":0.1,
	  "selections":[{"robot_id":1,"kind":"MINE_FOO"},{"robot_id":2,"kind":"MINE_BAR"}],
	  "storage":{"currency":0,"foo":0,"bar":0,"foobar":0,"robots":2},
	  "digest":"`+digest64+`"
	}`)

	validate(endSchema, `{"type":"END","ticks":812,"digest":"`+digest64+`"}`)
	validate(endSchema, `{"type":"END","ticks":3,"digest":"`+digest64+`","code":"E_CANCELLED","message":"context canceled"}`)
}

func TestSchemas_RejectBadLines(t *testing.T) {
	passSchema := compile(t, "pass.schema.json")
	bad := []string{
		`{"type":"PASS","tick":0,"sim_seconds":0.1,"storage":{"currency":-3,"foo":0,"bar":0,"foobar":0,"robots":2},"digest":"` + digest64 + `"}`,
		`{"type":"PASS","tick":0,"sim_seconds":0.1,"selections":[{"robot_id":1,"kind":"DANCE"}],"storage":{"currency":0,"foo":0,"bar":0,"foobar":0,"robots":2},"digest":"` + digest64 + `"}`,
		`{"type":"HEADER","tick":0}`,
	}
	for _, raw := range bad {
		if err := passSchema.Validate(decode(t, []byte(raw))); err == nil {
			t.Fatalf("expected validation error for %s", raw)
		}
	}
}

func TestSchemas_ValidateTypedLines(t *testing.T) {
	headerSchema := compile(t, "header.schema.json")
	passSchema := compile(t, "pass.schema.json")
	endSchema := compile(t, "end.schema.json")

	h := protocol.HeaderLine{
		Type:            protocol.TypeHeader,
		ProtocolVersion: protocol.Version,
		Seed:            -5,
		TickSeconds:     0.1,
		RobotCap:        30,
		InitialRobots:   2,
		CatalogDigest:   digest64,
	}
	if err := headerSchema.Validate(decode(t, marshal(t, h))); err != nil {
		t.Fatalf("header: %v", err)
	}

	p := protocol.PassLine{
		Type:       protocol.TypePass,
		Tick:       9,
		SimSeconds: 1.0,
		Storage:    protocol.StorageRef{Currency: 10, Foo: 3, Robots: 2},
		Digest:     digest64,
	}
	if err := passSchema.Validate(decode(t, marshal(t, p))); err != nil {
		t.Fatalf("pass: %v", err)
	}

	e := protocol.EndLine{Type: protocol.TypeEnd, Ticks: 10, Digest: digest64, Code: protocol.ErrInternal}
	if err := endSchema.Validate(decode(t, marshal(t, e))); err != nil {
		t.Fatalf("end: %v", err)
	}

	base, err := protocol.DecodeBase(marshal(t, h))
	if err != nil {
		t.Fatalf("decode base: %v", err)
	}
	if base.Type != protocol.TypeHeader || base.ProtocolVersion != protocol.Version {
		t.Fatalf("unexpected base: %+v", base)
	}
}
