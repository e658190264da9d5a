package categories

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/calhighlight/internal/calendar"
)

const initialPrompt = `You are a calendar category suggestion expert. Your task is to analyze a user's calendar data from the past 3 months and suggest 4-6 meaningful categories to help them organize their events.

CRITICAL REQUIREMENTS:
1. Suggest exactly 4-6 categories (no more, no less)
2. Each category MUST have:
   - name: A clear, concise category name (1-2 words max)
   - colorId: A Google Calendar color ID (must be '1', '2', '3', '4', '5', '6', '7', '8', '9', '10', or '11')
   - description: A brief explanation of what events belong in this category (1-2 sentences)
3. Assign DIFFERENT color IDs to each category (no duplicates)
4. Categories should be:
   - Mutually exclusive where possible
   - Based on actual patterns in the user's calendar data
   - Practical and actionable
   - Cover the majority of events in the dataset

In your explanation, briefly describe how you identified these categories based on the patterns you observed in the calendar data.

Current date: %s

The user's calendar data is provided below. Analyze it carefully and suggest categories that reflect their actual usage patterns.`

const refinementPrompt = `You are a calendar category suggestion expert. The user has reviewed your previous category suggestions and provided feedback. Your task is to generate a new set of 4-6 categories based on their feedback.

CRITICAL REQUIREMENTS:
1. Generate a new set of categories (the categories may be entirely new or have some overlap with the previous ones)
2. Carefully consider the user's feedback and adjust your suggestions accordingly
3. Still suggest exactly 4-6 categories (no more, no less)
4. Each category MUST have:
   - name: A clear, concise category name (2-4 words max)
   - colorId: A Google Calendar color ID (must be '1', '2', '3', '4', '5', '6', '7', '8', '9', '10', or '11')
   - description: A brief explanation of what events belong in this category (1-2 sentences)
5. Assign DIFFERENT color IDs to each category (no duplicates)
6. Categories should still be based on the calendar data patterns shown earlier in the conversation

In your explanation, describe how you incorporated the user's feedback into these new categories.

Current date: %s

Review the conversation history to see the calendar data and previous suggestions, then generate new categories based on the user's feedback.`

const categorizationPrompt = `You are a calendar event categorization expert. Your task is to assign each event to the most appropriate category from the provided list.

AVAILABLE CATEGORIES:
%s

INSTRUCTIONS:
1. For each event, analyze its summary, description, location, and attendees
2. Assign it to the MOST APPROPRIATE category from the list above
3. Use the EXACT category name as it appears in the list
4. Provide a confidence level (high/medium/low) for each categorization:
   - high: Clear match with category description
   - medium: Reasonable match but some ambiguity
   - low: Best guess when event doesn't clearly fit any category
5. If an event truly doesn't fit any category, still choose the closest match but mark it as low confidence

In your summary, briefly describe the overall categorization results and any notable patterns.

Current date: %s`

const maxDescriptionRunes = 100

func buildInitialPrompt(now time.Time, digest string) string {
	return fmt.Sprintf(initialPrompt, calendar.FormatDate(now)) + "\n\nCALENDAR DATA:\n" + digest
}

func buildRefinementPrompt(now time.Time) string {
	return fmt.Sprintf(refinementPrompt, calendar.FormatDate(now))
}

func buildCategorizationPrompt(now time.Time, cats []Category, appointments []calendar.Appointment) string {
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("- \"%s\": %s", c.Name, c.Description))
	}
	prompt := fmt.Sprintf(categorizationPrompt, strings.Join(lines, "\n"), calendar.FormatDate(now))
	return prompt + "\n\nEVENTS TO CATEGORIZE:\n" + formatEvents(appointments)
}

func formatEvents(appointments []calendar.Appointment) string {
	entries := make([]string, 0, len(appointments))
	for _, a := range appointments {
		start := a.StartTime.In(time.Local)

		var b strings.Builder
		fmt.Fprintf(&b, "Event ID: %s\nSummary: \"%s\"\nDate: %s at %s (%d min)",
			a.ID, a.Summary, start.Format(calendar.DateLayout), start.Format("15:04"), minutes(a))
		if a.Description != "" {
			desc := a.Description
			if len([]rune(desc)) > maxDescriptionRunes {
				desc = truncateRunes(desc, maxDescriptionRunes) + "..."
			}
			b.WriteString("\nDescription: " + desc)
		}
		if a.Location != "" {
			b.WriteString("\nLocation: " + a.Location)
		}
		if n := len(a.Attendees); n > 0 {
			fmt.Fprintf(&b, "\nAttendees: %d", n)
		}
		entries = append(entries, b.String())
	}
	return strings.Join(entries, "\n\n---\n\n")
}

// previousCategories renders the categories an assistant turn carried so
// the model sees them on replay.
func previousCategories(cats []Category) string {
	lines := make([]string, 0, len(cats))
	for _, c := range cats {
		lines = append(lines, fmt.Sprintf("- %s (Color %s): %s", c.Name, c.ColorID, c.Description))
	}
	return "Previous categories suggested:\n" + strings.Join(lines, "\n") + "\n\n"
}
