// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

import (
	"encoding/json"
	"strconv"
)

// ShardInfo identifies a shard within its shard group. The wire form is the
// two element array [id, total].
type ShardInfo struct {
	ID    uint16
	Total uint16
}

// String returns the conventional [id/total] form used in log fields.
func (s ShardInfo) String() string {
	return "[" + strconv.FormatUint(uint64(s.ID), 10) + "/" + strconv.FormatUint(uint64(s.Total), 10) + "]"
}

// MarshalJSON implements the json.Marshaler interface.
func (s ShardInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint16{s.ID, s.Total})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *ShardInfo) UnmarshalJSON(data []byte) error {
	var arr [2]uint16
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	s.ID, s.Total = arr[0], arr[1]
	return nil
}
