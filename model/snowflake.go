// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package model contains the value types shared by the gateway packages.
package model

import (
	"bytes"
	"strconv"
	"time"
)

// discordEpoch is the first millisecond of 2015 UTC. Snowflake timestamps
// count from it.
const discordEpoch = 1420070400000

// Snowflake is a Discord ID. The wire representation is a decimal string,
// but numeric forms are accepted on decode.
type Snowflake uint64

// String returns the decimal form of the ID.
func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// IsZero returns true if the ID is unset.
func (s Snowflake) IsZero() bool { return s == 0 }

// Time returns the creation time encoded in the high bits of the ID.
func (s Snowflake) Time() time.Time {
	return time.UnixMilli(int64(s>>22) + discordEpoch)
}

// MarshalJSON implements the json.Marshaler interface.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return err
	}
	*s = Snowflake(v)
	return nil
}
