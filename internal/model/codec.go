package model

import (
	"encoding/json"
	"reflect"

	"github.com/rotisserie/eris"
)

// EncodeStrings serializes an ordered string list. A nil list encodes as "[]".
func EncodeStrings(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", eris.Wrap(err, "model: encode strings")
	}
	if err := verifyRoundTrip(b, items); err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeStrings parses a list produced by EncodeStrings. Empty input decodes
// to nil.
func DecodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, eris.Wrap(err, "model: decode strings")
	}
	return out, nil
}

// EncodeMessages serializes a message bundle.
func EncodeMessages(b *MessageBundle) (string, error) {
	if b == nil {
		return "", eris.New("model: encode messages: nil bundle")
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", eris.Wrap(err, "model: encode messages")
	}
	if err := verifyRoundTrip(raw, b); err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeMessages parses a bundle produced by EncodeMessages. Empty input
// decodes to nil.
func DecodeMessages(raw string) (*MessageBundle, error) {
	if raw == "" {
		return nil, nil
	}
	var b MessageBundle
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return nil, eris.Wrap(err, "model: decode messages")
	}
	return &b, nil
}

// verifyRoundTrip decodes raw into a fresh value of want's type and checks it
// reproduces want.
func verifyRoundTrip[T any](raw []byte, want T) error {
	var got T
	if v := reflect.ValueOf(want); v.Kind() == reflect.Pointer {
		got = reflect.New(v.Type().Elem()).Interface().(T)
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		return eris.Wrap(err, "model: round-trip decode")
	}
	if !reflect.DeepEqual(got, want) {
		return eris.New("model: round-trip mismatch")
	}
	return nil
}
