/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package codec encodes history snapshots into store-safe strings.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	kverrors "github.com/suparena/kvobject/errors"
	"github.com/suparena/kvobject/registry"
)

// Codec turns values into strings that every store backend can hold.
type Codec interface {
	Name() string
	Encode(v any) (string, error)
	Decode(data string, v any) error
}

var (
	// JSON is the default codec.
	JSON Codec = jsonCodec{}
	// MsgPack encodes with MessagePack and wraps the bytes in base64.
	MsgPack Codec = msgpackCodec{}
)

var codecs = registry.New[Codec]("codec")

func init() {
	codecs.MustRegister(JSON.Name(), JSON)
	codecs.MustRegister(MsgPack.Name(), MsgPack)
}

// ByName returns the codec registered under name. An empty name selects JSON.
func ByName(name string) (Codec, error) {
	if name == "" {
		return JSON, nil
	}
	c, ok := codecs.Get(name)
	if !ok {
		return nil, kverrors.NewValidationError("codec", fmt.Sprintf("unknown codec %q, expected one of %v", name, codecs.Names()))
	}
	return c, nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T to JSON: %w", v, err)
	}
	return string(raw), nil
}

func (jsonCodec) Decode(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to decode JSON into %T: %w", v, err)
	}
	return nil
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return "msgpack" }

func (msgpackCodec) Encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(v)
	msgpack.PutEncoder(enc)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T using MsgPack: %w", v, err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (msgpackCodec) Decode(data string, v any) error {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("failed to decode msgpack envelope: %w", err)
	}
	dec := msgpack.GetDecoder()
	dec.Reset(bytes.NewReader(raw))
	err = dec.Decode(v)
	msgpack.PutDecoder(dec)
	if err != nil {
		return fmt.Errorf("failed to decode msgpack into %T: %w", v, err)
	}
	return nil
}
