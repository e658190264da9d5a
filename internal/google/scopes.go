package google

import calendar "google.golang.org/api/calendar/v3"

// CalendarScopes are requested on every authorization. Read access covers
// listing appointments and colors; events access is needed to change the
// color of an event.
var CalendarScopes = []string{
	calendar.CalendarReadonlyScope,
	calendar.CalendarEventsScope,
}
