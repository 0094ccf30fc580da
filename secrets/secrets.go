// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package secrets holds credential types whose values never appear in
// formatted output, so tokens cannot leak through logs or error
// messages.
package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const redacted = "<secret>"

// ErrInvalidToken is returned when a token fails validation.
var ErrInvalidToken = errors.New("the provided token was invalid")

// SecretString wraps a string so that fmt and logging output show a
// placeholder instead of the value. It still marshals to its real value,
// since secrets ultimately have to go over the wire.
type SecretString struct {
	inner string
}

// NewSecretString wraps inner.
func NewSecretString(inner string) SecretString {
	return SecretString{inner: inner}
}

// ExposeSecret returns the wrapped value.
func (s SecretString) ExposeSecret() string {
	return s.inner
}

// String implements fmt.Stringer and always reports a placeholder.
func (s SecretString) String() string {
	return redacted
}

// GoString implements fmt.GoStringer so %#v stays redacted as well.
func (s SecretString) GoString() string {
	return fmt.Sprintf("secrets.SecretString(%s)", redacted)
}

// MarshalJSON implements the json.Marshaler interface.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.inner)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *SecretString) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.inner)
}

// Token is a validated bot token, normalized to its "Bot " prefixed
// authorization form.
type Token struct {
	secret SecretString
}

// ParseToken checks that raw plausibly is a token and normalizes it.
//
// The raw value is trimmed, an optional "Bot " or "Bearer " prefix is
// dropped, and the rest must consist of three non-empty parts separated
// by periods. The stored form always carries the "Bot " prefix, so a
// "Bearer " token is converted.
func ParseToken(raw string) (Token, error) {
	token := strings.TrimSpace(raw)
	token = strings.TrimPrefix(token, "Bot ")
	token = strings.TrimPrefix(token, "Bearer ")

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Token{}, ErrInvalidToken
	}
	return Token{secret: NewSecretString("Bot " + token)}, nil
}

// TokenFromEnv reads and parses a token from the named environment
// variable.
func TokenFromEnv(key string) (Token, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return Token{}, errors.Errorf("environment variable %q is not set", key)
	}
	token, err := ParseToken(value)
	if err != nil {
		return Token{}, errors.Wrapf(err, "environment variable %q", key)
	}
	return token, nil
}

// ExposeSecret returns the normalized token, "Bot " prefix included.
func (t Token) ExposeSecret() string {
	return t.secret.ExposeSecret()
}

// IsZero reports whether t holds no token.
func (t Token) IsZero() bool {
	return t.secret.inner == ""
}

// String implements fmt.Stringer and always reports a placeholder.
func (t Token) String() string {
	return redacted
}

// GoString implements fmt.GoStringer so %#v stays redacted as well.
func (t Token) GoString() string {
	return fmt.Sprintf("secrets.Token(%s)", redacted)
}

// MarshalJSON implements the json.Marshaler interface.
func (t Token) MarshalJSON() ([]byte, error) {
	return t.secret.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface. The incoming
// value is validated and normalized like ParseToken does.
func (t *Token) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	token, err := ParseToken(raw)
	if err != nil {
		return err
	}
	*t = token
	return nil
}
