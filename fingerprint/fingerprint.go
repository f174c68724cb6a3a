// Package fingerprint derives stable digests of JSON documents so equivalent
// settings compare equal regardless of key order or number formatting.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"

	canonicaljson "github.com/gibson042/canonicaljson-go"
)

// Canonicalize normalizes raw JSON into canonical form.
func Canonicalize(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("null"), nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("fingerprint: multiple JSON documents")
	}
	return canonicaljson.Marshal(payload)
}

// Of returns the base64url-encoded SHA-256 of v's canonical JSON encoding.
func Of(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

// Equal reports whether a and b encode to the same canonical JSON.
func Equal(a, b any) (bool, error) {
	fa, err := Of(a)
	if err != nil {
		return false, err
	}
	fb, err := Of(b)
	if err != nil {
		return false, err
	}
	return fa == fb, nil
}
