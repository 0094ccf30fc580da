// Copyright (C) Serenity Contributors 2016-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

// OnlineStatus is the presence status of a user. The zero value is treated
// as StatusOnline when serialized.
type OnlineStatus string

// OnlineStatus constants.
const (
	StatusOnline    OnlineStatus = "online"
	StatusDnd       OnlineStatus = "dnd"
	StatusIdle      OnlineStatus = "idle"
	StatusInvisible OnlineStatus = "invisible"
	StatusOffline   OnlineStatus = "offline"
)

// Name returns the wire name of the status, defaulting to online.
func (os OnlineStatus) Name() string {
	if os == "" {
		return string(StatusOnline)
	}
	return string(os)
}

// ActivityType represents the type of an activity.
type ActivityType uint8

// ActivityType constants.
const (
	ActivityPlaying   ActivityType = 0
	ActivityStreaming ActivityType = 1
	ActivityListening ActivityType = 2
	ActivityWatching  ActivityType = 3
	ActivityCustom    ActivityType = 4
	ActivityCompeting ActivityType = 5
)

// String implements the fmt.Stringer interface.
func (at ActivityType) String() string {
	switch at {
	case ActivityPlaying:
		return "playing"
	case ActivityStreaming:
		return "streaming"
	case ActivityListening:
		return "listening"
	case ActivityWatching:
		return "watching"
	case ActivityCustom:
		return "custom"
	case ActivityCompeting:
		return "competing"
	}
	return "unknown"
}

// ActivityData is an activity to advertise in a presence.
type ActivityData struct {
	Name  string       `json:"name"`
	Type  ActivityType `json:"type"`
	State string       `json:"state,omitempty"`
	URL   string       `json:"url,omitempty"`
}

// PresenceData is the presence a session advertises, either at identify
// time or through a presence update.
type PresenceData struct {
	Status   OnlineStatus
	Activity *ActivityData
}

// Activities returns the wire list form of the optional activity.
func (p PresenceData) Activities() []ActivityData {
	if p.Activity == nil {
		return []ActivityData{}
	}
	return []ActivityData{*p.Activity}
}
