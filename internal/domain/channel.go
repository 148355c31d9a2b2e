package domain

import (
	"fmt"
	"strings"
)

// Channel represents a member communication channel.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelPush     Channel = "PUSH"
	ChannelVoice    Channel = "VOICE"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelPush, ChannelVoice:
		return true
	}
	return false
}

// Channels lists every supported channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelWhatsApp, ChannelPush, ChannelVoice}
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// ItemType identifies the kind of dispatchable item an attempt belongs to.
type ItemType string

const (
	ItemTypeAnnouncement  ItemType = "ANNOUNCEMENT"
	ItemTypeEvent         ItemType = "EVENT"
	ItemTypeEventReminder ItemType = "EVENT_REMINDER"
)

func (t ItemType) String() string { return string(t) }

func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeAnnouncement, ItemTypeEvent, ItemTypeEventReminder:
		return true
	}
	return false
}

// AttemptStatus is the lifecycle state of a delivery attempt.
// Transitions are one-way: QUEUED moves to SENT or FAILED and stops there.
type AttemptStatus string

const (
	AttemptQueued AttemptStatus = "QUEUED"
	AttemptSent   AttemptStatus = "SENT"
	AttemptFailed AttemptStatus = "FAILED"
)

func (s AttemptStatus) String() string { return string(s) }

func (s AttemptStatus) IsValid() bool {
	switch s {
	case AttemptQueued, AttemptSent, AttemptFailed:
		return true
	}
	return false
}

func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptSent || s == AttemptFailed
}

func ParseAttemptStatusFromString(s string) (AttemptStatus, error) {
	st := AttemptStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid attempt status %q", ErrValidation, s)
	}
	return st, nil
}
