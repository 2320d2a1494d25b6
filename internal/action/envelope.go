package action

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownKind is returned when decoding an envelope whose type does not
// name a known action.
var ErrUnknownKind = errors.New("unknown action kind")

// Envelope is the wire form of an action.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type decoder func(json.RawMessage) (Action, error)

var decoders = map[Kind]decoder{
	KindPing:                 decodeAs[Ping],
	KindPong:                 decodeAs[Pong],
	KindEndGame:              decodeAs[EndGame],
	KindLogin:                decodeAs[Login],
	KindFetchUser:            decodeAs[FetchUser],
	KindSetUser:              decodeAs[SetUser],
	KindFetchProduct:         decodeAs[FetchProduct],
	KindSetProduct:           decodeAs[SetProduct],
	KindFetchSelectedProduct: decodeAs[FetchSelectedProduct],
	KindSetSelectedProduct:   decodeAs[SetSelectedProduct],
	KindUploadPhotos:         decodeAs[UploadPhotos],
	KindSetPhotos:            decodeAs[SetPhotos],
	KindLogout:               decodeAs[Logout],
	KindReset:                decodeAs[Reset],
	KindNavigateHome:         decodeAs[NavigateHome],
	KindStartListening:       decodeAs[StartListening],
	KindStopListening:        decodeAs[StopListening],
	KindSetMessage:           decodeAs[SetMessage],
	KindSearchProduct:        decodeAs[SearchProduct],
	KindSetProducts:          decodeAs[SetProducts],
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var v T
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", v.Kind(), err)
	}
	return v, nil
}

// Kinds returns every known action kind in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(decoders))
	for k := range decoders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Known reports whether k names an action type.
func Known(k Kind) bool {
	_, ok := decoders[k]
	return ok
}

// Wrap converts an action into its envelope.
func Wrap(a Action) (Envelope, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", a.Kind(), err)
	}
	return Envelope{Type: a.Kind(), Payload: payload}, nil
}

// Unwrap converts an envelope back into a typed action.
func (e Envelope) Unwrap() (Action, error) {
	dec, ok := decoders[e.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Type)
	}
	return dec(e.Payload)
}

// Marshal encodes an action as envelope JSON.
func Marshal(a Action) ([]byte, error) {
	env, err := Wrap(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes envelope JSON into a typed action.
func Unmarshal(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("decode envelope: missing type")
	}
	return env.Unwrap()
}

// FromPayload builds an action from a kind and a generic payload, as
// produced by YAML or JSON decoding into map[string]any.
func FromPayload(kind Kind, payload map[string]any) (Action, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", kind, err)
		}
		raw = b
	}
	return Envelope{Type: kind, Payload: raw}.Unwrap()
}
