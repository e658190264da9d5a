package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calhighlight/internal/calendar"
)

type fakeSource struct {
	appts []calendar.Appointment
	err   error
	calls int
	start time.Time
	end   time.Time
}

func (f *fakeSource) ListAppointments(_ context.Context, start, end time.Time, _ string) ([]calendar.Appointment, error) {
	f.calls++
	f.start, f.end = start, end
	return f.appts, f.err
}

func local(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, time.Local)
}

func TestRangeArgs_Range(t *testing.T) {
	tests := []struct {
		name      string
		args      RangeArgs
		wantStart time.Time
		wantEnd   time.Time
		wantErr   error
	}{
		{
			name:      "single date",
			args:      RangeArgs{Date: "2025-12-15"},
			wantStart: local(2025, time.December, 15, 0, 0),
			wantEnd:   local(2025, time.December, 15, 0, 0),
		},
		{
			name:      "range widened to end of day",
			args:      RangeArgs{StartDate: "2025-12-14", EndDate: "2025-12-20"},
			wantStart: local(2025, time.December, 14, 0, 0),
			wantEnd:   calendar.EndOfDay(local(2025, time.December, 20, 0, 0)),
		},
		{
			name:      "range wins over date",
			args:      RangeArgs{Date: "2025-01-01", StartDate: "2025-12-14", EndDate: "2025-12-20"},
			wantStart: local(2025, time.December, 14, 0, 0),
			wantEnd:   calendar.EndOfDay(local(2025, time.December, 20, 0, 0)),
		},
		{name: "nothing", args: RangeArgs{}, wantErr: ErrMissingRange},
		{name: "start only", args: RangeArgs{StartDate: "2025-12-14"}, wantErr: ErrMissingRange},
		{name: "impossible date", args: RangeArgs{Date: "2025-02-30"}, wantErr: ErrInvalidDate},
		{name: "bad end", args: RangeArgs{StartDate: "2025-12-14", EndDate: "20-12-2025"}, wantErr: ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := tt.args.Range()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestRangeArgs_DateFirstRange(t *testing.T) {
	day := local(2025, time.January, 1, 0, 0)

	start, end, err := RangeArgs{Date: "2025-01-01", StartDate: "2025-12-14", EndDate: "2025-12-20"}.DateFirstRange()
	require.NoError(t, err)
	assert.Equal(t, day, start)
	assert.Equal(t, day, end)

	start, end, err = RangeArgs{StartDate: "2025-12-14", EndDate: "2025-12-20"}.DateFirstRange()
	require.NoError(t, err)
	assert.Equal(t, local(2025, time.December, 14, 0, 0), start)
	assert.Equal(t, calendar.EndOfDay(local(2025, time.December, 20, 0, 0)), end)

	_, _, err = RangeArgs{Date: "2025-02-30", StartDate: "2025-12-14", EndDate: "2025-12-20"}.DateFirstRange()
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, _, err = RangeArgs{EndDate: "2025-12-20"}.DateFirstRange()
	assert.ErrorIs(t, err, ErrMissingRange)
}

func TestFormatAppointments(t *testing.T) {
	assert.Equal(t, NoAppointmentsText, FormatAppointments(nil))

	review := calendar.Appointment{
		ID:          "1",
		Summary:     "Design review",
		StartTime:   local(2025, time.December, 15, 15, 4),
		EndTime:     local(2025, time.December, 15, 16, 4),
		Location:    "Room 2",
		Description: "Quarterly",
		Attendees: []calendar.Attendee{
			{Email: "ana@example.com", DisplayName: "Ana"},
			{Email: "bo@example.com"},
		},
		Color: &calendar.Color{ID: "9", Background: "#5484ed", Foreground: "#1d1d1d"},
	}
	lunch := calendar.Appointment{
		ID:        "2",
		Summary:   "Lunch",
		StartTime: local(2025, time.December, 16, 12, 0),
		EndTime:   local(2025, time.December, 16, 13, 0),
	}

	want := "Found 2 appointment(s):\n\n" +
		"- Design review (Mon, Dec 15, 3:04 PM - 4:04 PM)\n" +
		"  Location: Room 2\n" +
		"  Description: Quarterly\n" +
		"  Attendees: Ana, bo@example.com\n" +
		"  Color: #5484ed\n\n" +
		"- Lunch (Tue, Dec 16, 12:00 PM - 1:00 PM)"
	assert.Equal(t, want, FormatAppointments([]calendar.Appointment{review, lunch}))
}

func TestFetchAppointments(t *testing.T) {
	t.Run("bad arguments", func(t *testing.T) {
		src := &fakeSource{}
		out, err := FetchAppointments(context.Background(), src, "tok", RangeArgs{})
		assert.ErrorIs(t, err, ErrMissingRange)
		assert.Equal(t, `Error fetching appointments: Either "date" or both "startDate" and "endDate" must be provided`, out)
		assert.Zero(t, src.calls)
	})

	t.Run("upstream failure", func(t *testing.T) {
		src := &fakeSource{err: errors.New("403 forbidden")}
		out, err := FetchAppointments(context.Background(), src, "tok", RangeArgs{Date: "2025-12-15"})
		require.Error(t, err)
		assert.Equal(t, "Error fetching appointments: 403 forbidden", out)
	})

	t.Run("results", func(t *testing.T) {
		src := &fakeSource{appts: []calendar.Appointment{{
			Summary:   "Standup",
			StartTime: local(2025, time.December, 15, 9, 0),
			EndTime:   local(2025, time.December, 15, 9, 15),
		}}}
		out, err := FetchAppointments(context.Background(), src, "tok", RangeArgs{Date: "2025-12-15"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Found 1 appointment(s):\n\n- Standup (Mon, Dec 15, 9:00 AM - 9:15 AM)"))
		assert.Equal(t, src.start, src.end)
	})
}

func TestDecodeRangeArgs(t *testing.T) {
	args, err := decodeRangeArgs(`{"startDate":"2025-12-01","endDate":"2025-12-07"}`)
	require.NoError(t, err)
	assert.Equal(t, RangeArgs{StartDate: "2025-12-01", EndDate: "2025-12-07"}, args)

	args, err = decodeRangeArgs("")
	require.NoError(t, err)
	assert.Equal(t, RangeArgs{}, args)

	_, err = decodeRangeArgs("{not json")
	assert.Error(t, err)
}
