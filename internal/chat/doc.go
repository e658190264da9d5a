// Package chat answers free-form scheduling questions. The model may call
// the get_calendar_appointments tool once per question; its results are fed
// back for a final answer.
package chat
