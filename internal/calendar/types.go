package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Appointment statuses.
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"
)

// DefaultSummary is used for events without a title.
const DefaultSummary = "No title"

// Appointment is the provider-independent shape of a calendar event.
// Every fetch produces fresh values; nothing is shared between requests.
type Appointment struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	Attendees   []Attendee `json:"attendees,omitempty"`
	Organizer   *Organizer `json:"organizer,omitempty"`
	Status      string     `json:"status"`
	HTMLLink    string     `json:"htmlLink,omitempty"`
	Provider    string     `json:"provider"`
	Color       *Color     `json:"color,omitempty"`
}

// Duration returns the length of the appointment.
func (a Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// Attendee is one invitee of an appointment.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
}

// Name returns the display name, falling back to the email.
func (a Attendee) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Email
}

// Organizer is the owner of an appointment.
type Organizer struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Color is one entry of a provider's event color palette.
type Color struct {
	ID         string `json:"id"`
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// TokenSet is the result of an authorization code exchange or refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// ExpiryMillis returns the expiry as milliseconds since the Unix epoch.
func (t TokenSet) ExpiryMillis() int64 {
	return t.Expiry.UnixMilli()
}

// toAppointment converts a Google Calendar event. The color is only set
// when the event's color id is present in the palette.
func toAppointment(event *calendar.Event, palette Palette) Appointment {
	if event == nil {
		return Appointment{}
	}

	appt := Appointment{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		StartTime:   parseEventTime(event.Start),
		EndTime:     parseEventTime(event.End),
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
		Provider:    ProviderGoogle,
	}
	if appt.Summary == "" {
		appt.Summary = DefaultSummary
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}

	for _, att := range event.Attendees {
		if att == nil {
			continue
		}
		appt.Attendees = append(appt.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
		})
	}

	if event.Organizer != nil {
		appt.Organizer = &Organizer{
			Email:       event.Organizer.Email,
			DisplayName: event.Organizer.DisplayName,
		}
	}

	if c, ok := palette[event.ColorId]; ok && event.ColorId != "" {
		appt.Color = &c
	}

	return appt
}

// parseEventTime reads a timed instant with its offset, or an all-day date
// as local midnight.
func parseEventTime(edt *calendar.EventDateTime) time.Time {
	if edt == nil {
		return time.Time{}
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t
		}
	}
	if edt.Date != "" {
		if t, err := time.ParseInLocation(DateLayout, edt.Date, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
