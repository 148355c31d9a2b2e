package content

import (
	"fmt"
	"strings"

	"github.com/famboard/dispatch-engine/internal/domain"
)

// Content is a rendered message ready for a channel transport.
type Content struct {
	Subject string
	Body    string
}

// Builder renders dispatchable items into channel-agnostic content.
// Rendering is a collaborator concern; dispatch treats it as opaque.
type Builder interface {
	Announcement(a *domain.Announcement) (Content, error)
	Event(e *domain.Event) (Content, error)
	EventReminder(e *domain.Event, r *domain.EventReminder) (Content, error)
}

var _ Builder = (*TextBuilder)(nil)

// TextBuilder renders plain-text subjects and bodies.
type TextBuilder struct{}

func NewTextBuilder() *TextBuilder {
	return &TextBuilder{}
}

func (b *TextBuilder) Announcement(a *domain.Announcement) (Content, error) {
	if a == nil {
		return Content{}, fmt.Errorf("announcement is required")
	}

	return Content{
		Subject: a.Title,
		Body:    a.Body,
	}, nil
}

func (b *TextBuilder) Event(e *domain.Event) (Content, error) {
	if e == nil {
		return Content{}, fmt.Errorf("event is required")
	}

	return Content{
		Subject: fmt.Sprintf("New event: %s", e.Title),
		Body:    eventBody(e, ""),
	}, nil
}

func (b *TextBuilder) EventReminder(e *domain.Event, r *domain.EventReminder) (Content, error) {
	if e == nil {
		return Content{}, fmt.Errorf("event is required")
	}
	if r == nil {
		return Content{}, fmt.Errorf("reminder is required")
	}

	subject := fmt.Sprintf("Reminder: %s", e.Title)
	if r.Initial {
		subject = fmt.Sprintf("New event: %s", e.Title)
	}

	custom := ""
	if r.CustomMessage != nil {
		custom = strings.TrimSpace(*r.CustomMessage)
	}

	return Content{
		Subject: subject,
		Body:    eventBody(e, custom),
	}, nil
}

func eventBody(e *domain.Event, custom string) string {
	var sb strings.Builder

	if custom != "" {
		sb.WriteString(custom)
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("%s on %s", e.Title, e.StartsAt.Format("Mon, 2 Jan 2006 at 15:04")))
	if loc := strings.TrimSpace(e.Location); loc != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", loc))
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		sb.WriteString("\n")
		sb.WriteString(desc)
	}

	return sb.String()
}
