// Package categories implements the category assistant: it resolves the
// conversation phase, condenses calendar history into a bounded digest for
// the model, asks the model for 4 to 6 color-coded categories, and assigns
// events in a date range to a chosen category set.
//
// The conversation transcript is owned by the caller and passed back in
// full on every call; nothing is stored between requests.
package categories
