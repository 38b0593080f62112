package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the tagged JSON form of a Value.
type envelope struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// Marshal encodes v as {"kind": ..., "value": ...}.
// HTML escaping is disabled so stored text matches what the user typed.
func Marshal(v Value) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("marshal value: nil value")
	}

	var raw any
	switch val := v.(type) {
	case String:
		raw = string(val)
	case Int:
		raw = int64(val)
	case Bool:
		raw = bool(val)
	case Pointer:
		raw = uint64(val)
	case PointerSeq:
		ptrs := make([]uint64, len(val))
		for i, p := range val {
			ptrs[i] = uint64(p)
		}
		raw = ptrs
	default:
		return nil, fmt.Errorf("marshal value: unknown type %T", v)
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}

	var out bytes.Buffer
	enc = json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(envelope{Kind: v.Kind().String(), Value: bytes.TrimSpace(body.Bytes())}); err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return bytes.TrimSpace(out.Bytes()), nil
}

// Unmarshal decodes the tagged form produced by Marshal.
func Unmarshal(data []byte) (Value, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal value: %w", err)
	}
	return Decode(env.Kind, env.Value)
}

// Decode converts a kind name and its raw JSON payload into a Value.
func Decode(kind string, payload []byte) (Value, error) {
	k, ok := ParseKind(kind)
	if !ok {
		return nil, fmt.Errorf("unmarshal value: unknown kind %q", kind)
	}

	switch k {
	case KindString:
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", k, err)
		}
		return String(s), nil
	case KindInt:
		var n int64
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", k, err)
		}
		return Int(n), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", k, err)
		}
		return Bool(b), nil
	case KindPointer:
		var p uint64
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", k, err)
		}
		return Pointer(p), nil
	default:
		var ptrs []uint64
		if err := json.Unmarshal(payload, &ptrs); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", k, err)
		}
		seq := make(PointerSeq, len(ptrs))
		for i, p := range ptrs {
			seq[i] = Pointer(p)
		}
		return seq, nil
	}
}

// Payload returns the untagged JSON for v, used by the CLI's json output.
func Payload(v Value) (json.RawMessage, error) {
	data, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env.Value, nil
}
