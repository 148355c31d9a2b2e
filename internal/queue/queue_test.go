package queue

import (
	"testing"
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
)

func TestDeliveryEventValidate(t *testing.T) {
	t.Parallel()

	base := DeliveryEvent{
		AttemptID:  "a-1",
		ItemType:   domain.ItemTypeAnnouncement,
		ItemID:     "ann-1",
		UserID:     "u-1",
		Channel:    domain.ChannelEmail,
		Status:     domain.AttemptSent,
		OccurredAt: time.Now().UTC(),
	}

	tests := []struct {
		name    string
		mutate  func(*DeliveryEvent)
		wantErr bool
	}{
		{
			name:   "valid sent event",
			mutate: func(e *DeliveryEvent) {},
		},
		{
			name: "valid failed event",
			mutate: func(e *DeliveryEvent) {
				e.Status = domain.AttemptFailed
				e.Error = "gateway returned status 502"
			},
		},
		{
			name: "missing attempt id",
			mutate: func(e *DeliveryEvent) {
				e.AttemptID = " "
			},
			wantErr: true,
		},
		{
			name: "invalid item type",
			mutate: func(e *DeliveryEvent) {
				e.ItemType = domain.ItemType("NEWSLETTER")
			},
			wantErr: true,
		},
		{
			name: "invalid channel",
			mutate: func(e *DeliveryEvent) {
				e.Channel = domain.Channel("FAX")
			},
			wantErr: true,
		},
		{
			name: "non-terminal status",
			mutate: func(e *DeliveryEvent) {
				e.Status = domain.AttemptQueued
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}
