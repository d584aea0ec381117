// Package encoding serializes page inputs into the built document so the
// client pass can re-run the tree with exactly the values the build pass
// used.
//
// The payload is msgpack, base64url encoded, followed by a dot and a tag:
//   - Checked (default): an xxhash digest of the payload. It catches
//     truncation and accidental edits, not tampering.
//   - Signed (WithKey): a truncated HMAC-SHA256 of the payload.
//
// Both sides must agree on the key.
package encoding

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pthm/lex"
)

// The encoded input is embedded in the page head as
//
//	<script type="application/x-lex-input" id="lex-input">...</script>
const (
	ScriptType = lex.InputContentType
	ScriptID   = "lex-input"
)

var (
	ErrInvalidFormat    = errors.New("encoding: invalid format")
	ErrChecksum         = errors.New("encoding: checksum mismatch")
	ErrSignatureInvalid = errors.New("encoding: signature verification failed")
)

// Encoder encodes and decodes page inputs. The zero value is not usable;
// call New.
type Encoder struct {
	key []byte
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithKey switches the encoder from checksums to HMAC signatures. An empty
// key leaves it in checksum mode.
func WithKey(key []byte) Option {
	return func(e *Encoder) {
		if len(key) > 0 {
			h := sha256.Sum256(key)
			e.key = h[:]
		}
	}
}

// New creates an encoder.
func New(opts ...Option) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Signed reports whether the encoder signs rather than checksums.
func (e *Encoder) Signed() bool {
	return e.key != nil
}

// Encode serializes input. Keys are written in sorted order, so equal
// inputs always produce equal strings.
func (e *Encoder) Encode(input lex.Props) (string, error) {
	if input == nil {
		input = lex.Props{}
	}

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(map[string]any(input)); err != nil {
		return "", fmt.Errorf("encoding: marshal input: %w", err)
	}
	packed := buf.Bytes()

	return base64.RawURLEncoding.EncodeToString(packed) + "." +
		base64.RawURLEncoding.EncodeToString(e.tag(packed)), nil
}

// Decode verifies and deserializes an encoded input.
//
// Numbers come back loose: every integer as int64 or uint64 and every float
// as float64, whatever width they were encoded with. Read them through
// lex.Props.Int.
func (e *Encoder) Decode(encoded string) (lex.Props, error) {
	packed, err := e.verify(strings.TrimSpace(encoded))
	if err != nil {
		return nil, err
	}

	dec := msgpack.NewDecoder(bytes.NewReader(packed))
	dec.UseLooseInterfaceDecoding(true)
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if data == nil {
		data = map[string]any{}
	}
	return lex.Props(data), nil
}

// RoundTrip encodes input and decodes it again. The build pass renders from
// the result so that it sees exactly what the client will.
func (e *Encoder) RoundTrip(input lex.Props) (string, lex.Props, error) {
	encoded, err := e.Encode(input)
	if err != nil {
		return "", nil, err
	}
	decoded, err := e.Decode(encoded)
	if err != nil {
		return "", nil, err
	}
	return encoded, decoded, nil
}

func (e *Encoder) tag(data []byte) []byte {
	if e.key != nil {
		mac := hmac.New(sha256.New, e.key)
		mac.Write(data)
		return mac.Sum(nil)[:16] // 128 bits
	}
	return binary.BigEndian.AppendUint64(nil, xxhash.Sum64(data))
}

func (e *Encoder) verify(encoded string) ([]byte, error) {
	parts := strings.SplitN(encoded, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: missing tag", ErrInvalidFormat)
	}

	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	tag, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if !hmac.Equal(tag, e.tag(data)) {
		if e.key != nil {
			return nil, ErrSignatureInvalid
		}
		return nil, ErrChecksum
	}
	return data, nil
}
