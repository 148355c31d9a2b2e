package provider

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PushSubscription is the parsed form of a PUSH preference's destination
// blob: a web-push endpoint plus its encryption keys.
type PushSubscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// ParsePushSubscription decodes a serialized subscription. Dispatch calls
// this before invoking the PUSH transport; a malformed payload fails the
// attempt without any network call.
func ParsePushSubscription(destination string) (*PushSubscription, error) {
	trimmed := strings.TrimSpace(destination)
	if trimmed == "" {
		return nil, fmt.Errorf("push subscription is empty")
	}

	var sub PushSubscription
	if err := json.Unmarshal([]byte(trimmed), &sub); err != nil {
		return nil, fmt.Errorf("push subscription is not valid JSON: %w", err)
	}

	if strings.TrimSpace(sub.Endpoint) == "" {
		return nil, fmt.Errorf("push subscription has no endpoint")
	}
	if strings.TrimSpace(sub.Keys.P256dh) == "" || strings.TrimSpace(sub.Keys.Auth) == "" {
		return nil, fmt.Errorf("push subscription is missing encryption keys")
	}

	return &sub, nil
}
