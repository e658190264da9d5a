package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/teemow/calhighlight/internal/calendar"
)

// AppointmentsToolName is the function name the model calls.
const AppointmentsToolName = "get_calendar_appointments"

// AppointmentsToolDescription tells the model when to use the tool.
const AppointmentsToolDescription = `Get calendar appointments for a specific date or date range.
Use this tool when the user asks about their schedule, meetings, events, or appointments.
Examples: "What do I have today?", "Show my meetings for tomorrow", "What's on my calendar next week?"
The tool returns a list of appointments with details like title, time, location, and attendees.`

// Argument descriptions shared with the MCP tool.
const (
	DateArgDescription      = `A specific date in YYYY-MM-DD format (e.g., "2025-12-15"). Use this for single-day queries.`
	StartDateArgDescription = "Start date for a date range in YYYY-MM-DD format. Must be used with endDate."
	EndDateArgDescription   = "End date for a date range in YYYY-MM-DD format. Must be used with startDate."
)

// NoAppointmentsText is the tool output for an empty result.
const NoAppointmentsText = "No appointments found for the specified date(s)."

var (
	// ErrMissingRange is returned when neither a date nor a full range is given.
	ErrMissingRange = errors.New(`Either "date" or both "startDate" and "endDate" must be provided`)

	// ErrInvalidDate is returned for a malformed or impossible date.
	ErrInvalidDate = errors.New("Invalid date format. Use YYYY-MM-DD")
)

// AppointmentSource lists appointments in a time range. *calendar.Gateway
// implements it.
type AppointmentSource interface {
	ListAppointments(ctx context.Context, start, end time.Time, accessToken string) ([]calendar.Appointment, error)
}

// RangeArgs are the arguments of the appointments tool. A full
// startDate/endDate pair takes precedence over date.
type RangeArgs struct {
	Date      string `json:"date,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Range resolves the arguments to a local time window, preferring a full
// startDate/endDate pair over date. A single date is returned as the same
// instant twice; the gateway widens it to the whole day. A range ends at the
// end of its last day.
func (a RangeArgs) Range() (time.Time, time.Time, error) {
	switch {
	case a.StartDate != "" && a.EndDate != "":
		return a.span()
	case a.Date != "":
		return a.day()
	default:
		return time.Time{}, time.Time{}, ErrMissingRange
	}
}

// DateFirstRange is Range with date taking precedence over the
// startDate/endDate pair, as the appointments query endpoint resolves it.
func (a RangeArgs) DateFirstRange() (time.Time, time.Time, error) {
	switch {
	case a.Date != "":
		return a.day()
	case a.StartDate != "" && a.EndDate != "":
		return a.span()
	default:
		return time.Time{}, time.Time{}, ErrMissingRange
	}
}

func (a RangeArgs) day() (time.Time, time.Time, error) {
	day, err := calendar.ParseDate(a.Date)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return day, day, nil
}

func (a RangeArgs) span() (time.Time, time.Time, error) {
	start, err := calendar.ParseDate(a.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	end, err := calendar.ParseDate(a.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDate
	}
	return start, calendar.EndOfDay(end), nil
}

// FetchAppointments runs the tool and returns the text handed to the model.
// Failures are reported in the text rather than as an error so the model
// can explain them.
func FetchAppointments(ctx context.Context, src AppointmentSource, accessToken string, args RangeArgs) (string, error) {
	start, end, err := args.Range()
	if err != nil {
		return "Error fetching appointments: " + err.Error(), err
	}
	appointments, err := src.ListAppointments(ctx, start, end, accessToken)
	if err != nil {
		return "Error fetching appointments: " + err.Error(), err
	}
	return FormatAppointments(appointments), nil
}

// FormatAppointments renders appointments for the model.
func FormatAppointments(appointments []calendar.Appointment) string {
	if len(appointments) == 0 {
		return NoAppointmentsText
	}
	entries := make([]string, 0, len(appointments))
	for _, a := range appointments {
		entries = append(entries, formatAppointment(a))
	}
	return fmt.Sprintf("Found %d appointment(s):\n\n%s", len(appointments), strings.Join(entries, "\n\n"))
}

func formatAppointment(a calendar.Appointment) string {
	start := a.StartTime.In(time.Local).Format("Mon, Jan 2, 3:04 PM")
	end := a.EndTime.In(time.Local).Format("3:04 PM")

	var b strings.Builder
	fmt.Fprintf(&b, "- %s (%s - %s)", a.Summary, start, end)
	if a.Location != "" {
		b.WriteString("\n  Location: " + a.Location)
	}
	if a.Description != "" {
		b.WriteString("\n  Description: " + a.Description)
	}
	if len(a.Attendees) > 0 {
		names := make([]string, 0, len(a.Attendees))
		for _, at := range a.Attendees {
			names = append(names, at.Name())
		}
		b.WriteString("\n  Attendees: " + strings.Join(names, ", "))
	}
	if a.Color != nil {
		b.WriteString("\n  Color: " + a.Color.Background)
	}
	return b.String()
}

// appointmentsTool is the function definition offered to the model.
func appointmentsTool() openai.Tool {
	params := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"date":      {Type: jsonschema.String, Description: DateArgDescription},
			"startDate": {Type: jsonschema.String, Description: StartDateArgDescription},
			"endDate":   {Type: jsonschema.String, Description: EndDateArgDescription},
		},
	}
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        AppointmentsToolName,
			Description: AppointmentsToolDescription,
			Parameters:  &params,
		},
	}
}

func decodeRangeArgs(raw string) (RangeArgs, error) {
	var args RangeArgs
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return RangeArgs{}, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}
