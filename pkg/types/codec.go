package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand   = errors.New("unknown command variant")
	ErrMalformedCommand = errors.New("malformed command")
)

type setBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type getBody struct {
	Key string `json:"key"`
}

// decoded forms; a nil field means it was absent from the record
type setFields struct {
	Key   *string `json:"key"`
	Value *string `json:"value"`
}

type getFields struct {
	Key *string `json:"key"`
}

type nopFields struct{}

// MarshalJSON encodes the command as an externally tagged variant:
//
//	{"Set":{"key":"k","value":"v"}}
//	{"Get":{"key":"k"}}
//	"Nop"
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindSet:
		return json.Marshal(map[string]setBody{"Set": {Key: c.Key, Value: c.Value}})
	case KindGet:
		return json.Marshal(map[string]getBody{"Get": {Key: c.Key}})
	case KindNop:
		return json.Marshal("Nop")
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownCommand, c.Kind)
	}
}

// UnmarshalJSON accepts the forms produced by MarshalJSON, plus {"Nop":{}}
// and {"Nop":null}. Set and Get bodies must carry all of their fields.
func (c *Command) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Nop" {
			return fmt.Errorf("%w: %q", ErrUnknownCommand, tag)
		}
		*c = Nop()
		return nil
	}

	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("%w: expected exactly one variant tag, got %d", ErrMalformedCommand, len(tagged))
	}

	for tag, body := range tagged {
		switch tag {
		case "Set":
			var b setFields
			if err := decodeBody(tag, body, &b); err != nil {
				return err
			}
			if b.Key == nil || b.Value == nil {
				return fmt.Errorf("%w: Set requires key and value", ErrMalformedCommand)
			}
			*c = Set(*b.Key, *b.Value)
		case "Get":
			var b getFields
			if err := decodeBody(tag, body, &b); err != nil {
				return err
			}
			if b.Key == nil {
				return fmt.Errorf("%w: Get requires key", ErrMalformedCommand)
			}
			*c = Get(*b.Key)
		case "Nop":
			if !isNull(body) {
				var b nopFields
				if err := decodeBody(tag, body, &b); err != nil {
					return err
				}
			}
			*c = Nop()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownCommand, tag)
		}
	}

	return nil
}

// decodeBody decodes a variant body that must be a JSON object with no
// fields beyond those of v.
func decodeBody(tag string, raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("%w: %s body must be an object", ErrMalformedCommand, tag)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedCommand, tag, err)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// EncodeTransaction returns the single-line JSON form of tx, without the
// trailing newline.
func EncodeTransaction(tx Transaction) ([]byte, error) {
	return json.Marshal(tx)
}

// DecodeTransaction parses one JSON record. Missing id or command fields are
// rejected.
func DecodeTransaction(data []byte) (Transaction, error) {
	var raw struct {
		ID      *TxID    `json:"id"`
		Command *Command `json:"command"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Transaction{}, err
	}
	if raw.ID == nil {
		return Transaction{}, fmt.Errorf("%w: missing id", ErrMalformedCommand)
	}
	if raw.Command == nil {
		return Transaction{}, fmt.Errorf("%w: missing command", ErrMalformedCommand)
	}
	return Transaction{ID: *raw.ID, Command: *raw.Command}, nil
}
