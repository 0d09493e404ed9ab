package intent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed intent.schema.json
var schemaJSON []byte

var (
	ErrInvalid     = errors.New("invalid intent")
	ErrUnknownKind = errors.New("unknown intent type")
)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft7
		if err := c.AddResource("intent.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load intent schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("intent.schema.json")
	})
	return schema, schemaErr
}

// Encode renders in as a tagged record: {"type": <kind>, ...fields}.
func Encode(in Intent) ([]byte, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", in.Kind(), err)
	}
	tag, _ := json.Marshal(string(in.Kind()))
	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if len(body) > 2 {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// Decode validates raw against the intent schema and returns the typed
// intent it describes.
func Decode(raw []byte) (Intent, error) {
	s, err := compiled()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := s.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	in, ok := newOf(head.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
	if err := json.Unmarshal(raw, in); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, head.Type, err)
	}
	return in, nil
}

type turnWire struct {
	Number  int64             `json:"turnNumber"`
	Intents []json.RawMessage `json:"intents"`
	Joins   []Join            `json:"joins,omitempty"`
}

func (t Turn) MarshalJSON() ([]byte, error) {
	w := turnWire{Number: t.Number, Joins: t.Joins, Intents: make([]json.RawMessage, 0, len(t.Intents))}
	for _, in := range t.Intents {
		raw, err := Encode(in)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", t.Number, err)
		}
		w.Intents = append(w.Intents, raw)
	}
	return json.Marshal(w)
}

func (t *Turn) UnmarshalJSON(b []byte) error {
	var w turnWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	t.Number, t.Joins = w.Number, w.Joins
	t.Intents = make([]Intent, 0, len(w.Intents))
	for i, raw := range w.Intents {
		in, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("turn %d intent %d: %w", w.Number, i, err)
		}
		t.Intents = append(t.Intents, in)
	}
	return nil
}
