package repository

import (
	"time"

	"github.com/famboard/dispatch-engine/internal/domain"
)

// FamilyGroupModel is the persistence model for family_groups.
type FamilyGroupModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FamilyGroupModel) TableName() string {
	return "family_groups"
}

// UserModel is the persistence model for users.
type UserModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// MembershipModel is the persistence model for memberships.
type MembershipModel struct {
	ID       string      `gorm:"type:uuid;primaryKey"`
	GroupID  string      `gorm:"type:uuid;not null;index"`
	UserID   string      `gorm:"type:uuid;not null"`
	Role     domain.Role `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time
}

func (MembershipModel) TableName() string {
	return "memberships"
}

// PreferenceModel is the persistence model for channel_preferences.
type PreferenceModel struct {
	ID          string         `gorm:"type:uuid;primaryKey"`
	UserID      string         `gorm:"type:uuid;not null;index"`
	Channel     domain.Channel `gorm:"type:varchar(10);not null"`
	Enabled     bool           `gorm:"not null;default:false"`
	Destination string         `gorm:"type:text;not null"`
	VerifiedAt  *time.Time     `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PreferenceModel) TableName() string {
	return "channel_preferences"
}

// AnnouncementModel is the persistence model for announcements.
type AnnouncementModel struct {
	ID                string     `gorm:"type:uuid;primaryKey"`
	GroupID           string     `gorm:"type:uuid;not null;index"`
	Title             string     `gorm:"type:varchar(255);not null"`
	Body              string     `gorm:"type:text;not null"`
	ScheduledAt       *time.Time `gorm:"type:timestamptz"`
	ScheduledResendAt *time.Time `gorm:"type:timestamptz"`
	PublishedAt       *time.Time `gorm:"type:timestamptz"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (AnnouncementModel) TableName() string {
	return "announcements"
}

// EventModel is the persistence model for events.
type EventModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	GroupID     string    `gorm:"type:uuid;not null;index"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Description string    `gorm:"type:text"`
	Location    string    `gorm:"type:varchar(255)"`
	StartsAt    time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (EventModel) TableName() string {
	return "events"
}

// EventReminderModel is the persistence model for event_reminders.
type EventReminderModel struct {
	ID                string     `gorm:"type:uuid;primaryKey"`
	EventID           string     `gorm:"type:uuid;not null;index"`
	GroupID           string     `gorm:"type:uuid;not null"`
	CustomMessage     *string    `gorm:"type:text"`
	Initial           bool       `gorm:"not null;default:false"`
	ScheduledAt       *time.Time `gorm:"type:timestamptz"`
	ScheduledResendAt *time.Time `gorm:"type:timestamptz"`
	PublishedAt       *time.Time `gorm:"type:timestamptz"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (EventReminderModel) TableName() string {
	return "event_reminders"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID                string               `gorm:"type:uuid;primaryKey"`
	ItemType          domain.ItemType      `gorm:"type:varchar(16);not null"`
	ItemID            string               `gorm:"type:uuid;not null"`
	UserID            string               `gorm:"type:uuid;not null"`
	Channel           domain.Channel       `gorm:"type:varchar(10);not null"`
	Status            domain.AttemptStatus `gorm:"type:varchar(10);not null"`
	ProviderMessageID *string              `gorm:"type:varchar(255)"`
	Error             *string              `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

func announcementModelFromDomain(a *domain.Announcement) *AnnouncementModel {
	if a == nil {
		return nil
	}

	return &AnnouncementModel{
		ID:                a.ID,
		GroupID:           a.GroupID,
		Title:             a.Title,
		Body:              a.Body,
		ScheduledAt:       a.ScheduledAt,
		ScheduledResendAt: a.ScheduledResendAt,
		PublishedAt:       a.PublishedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func announcementModelToDomain(m *AnnouncementModel) *domain.Announcement {
	if m == nil {
		return nil
	}

	return &domain.Announcement{
		ID:                m.ID,
		GroupID:           m.GroupID,
		Title:             m.Title,
		Body:              m.Body,
		ScheduledAt:       m.ScheduledAt,
		ScheduledResendAt: m.ScheduledResendAt,
		PublishedAt:       m.PublishedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func eventModelFromDomain(e *domain.Event) *EventModel {
	if e == nil {
		return nil
	}

	return &EventModel{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func eventModelToDomain(m *EventModel) *domain.Event {
	if m == nil {
		return nil
	}

	return &domain.Event{
		ID:          m.ID,
		GroupID:     m.GroupID,
		Title:       m.Title,
		Description: m.Description,
		Location:    m.Location,
		StartsAt:    m.StartsAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func reminderModelFromDomain(r *domain.EventReminder) *EventReminderModel {
	if r == nil {
		return nil
	}

	return &EventReminderModel{
		ID:                r.ID,
		EventID:           r.EventID,
		GroupID:           r.GroupID,
		CustomMessage:     r.CustomMessage,
		Initial:           r.Initial,
		ScheduledAt:       r.ScheduledAt,
		ScheduledResendAt: r.ScheduledResendAt,
		PublishedAt:       r.PublishedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func reminderModelToDomain(m *EventReminderModel) *domain.EventReminder {
	if m == nil {
		return nil
	}

	return &domain.EventReminder{
		ID:                m.ID,
		EventID:           m.EventID,
		GroupID:           m.GroupID,
		CustomMessage:     m.CustomMessage,
		Initial:           m.Initial,
		ScheduledAt:       m.ScheduledAt,
		ScheduledResendAt: m.ScheduledResendAt,
		PublishedAt:       m.PublishedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:                a.ID,
		ItemType:          a.ItemType,
		ItemID:            a.ItemID,
		UserID:            a.UserID,
		Channel:           a.Channel,
		Status:            a.Status,
		ProviderMessageID: a.ProviderMessageID,
		Error:             a.Error,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:                m.ID,
		ItemType:          m.ItemType,
		ItemID:            m.ItemID,
		UserID:            m.UserID,
		Channel:           m.Channel,
		Status:            m.Status,
		ProviderMessageID: m.ProviderMessageID,
		Error:             m.Error,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func preferenceModelToDomain(m *PreferenceModel) domain.Preference {
	return domain.Preference{
		ID:          m.ID,
		UserID:      m.UserID,
		Channel:     m.Channel,
		Enabled:     m.Enabled,
		Destination: m.Destination,
		VerifiedAt:  m.VerifiedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func userModelToDomain(m *UserModel) domain.User {
	return domain.User{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
