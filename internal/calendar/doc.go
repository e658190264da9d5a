// Package calendar is the calendar gateway: it fetches events from a calendar
// provider, normalizes them into Appointments, resolves their colors, and
// writes color changes back.
//
// Providers implement CalendarProvider and are looked up by name through a
// Registry. The Registry also carries a catalog of known providers, some of
// which are listed but not yet implemented. Google Calendar is the only
// implemented provider.
//
// Date strings of the form YYYY-MM-DD are always interpreted as local
// calendar days; instants returned by providers keep their offsets.
package calendar
