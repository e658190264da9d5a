package categories

import (
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ColorIDs is the fixed set of event color ids a category may use.
var ColorIDs = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"}

// Confidence is how certain the model is about an assignment.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

func (c Confidence) valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

const (
	suggestionSchemaName     = "category_suggestion"
	categorizationSchemaName = "event_categorization"
)

func suggestionSchema() jsonschema.Definition {
	category := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"name": {
				Type:        jsonschema.String,
				Description: "A clear, concise category name (2-4 words max)",
			},
			"colorId": {
				Type:        jsonschema.String,
				Enum:        ColorIDs,
				Description: "Google Calendar color ID",
			},
			"description": {
				Type:        jsonschema.String,
				Description: "A brief explanation of what events belong in this category (1-2 sentences)",
			},
		},
		Required:             []string{"name", "colorId", "description"},
		AdditionalProperties: false,
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"categories": {
				Type:        jsonschema.Array,
				Description: "Array of 4-6 suggested categories",
				Items:       &category,
			},
			"explanation": {
				Type:        jsonschema.String,
				Description: "Brief explanation of the categories and how they were chosen",
			},
		},
		Required:             []string{"categories", "explanation"},
		AdditionalProperties: false,
	}
}

func categorizationSchema() jsonschema.Definition {
	item := jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"eventId": {
				Type:        jsonschema.String,
				Description: "The ID of the event",
			},
			"suggestedCategoryName": {
				Type:        jsonschema.String,
				Description: "The name of the category this event belongs to",
			},
			"confidence": {
				Type:        jsonschema.String,
				Enum:        []string{string(ConfidenceHigh), string(ConfidenceMedium), string(ConfidenceLow)},
				Description: "Confidence level of the categorization",
			},
		},
		Required:             []string{"eventId", "suggestedCategoryName", "confidence"},
		AdditionalProperties: false,
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"categorizations": {
				Type:        jsonschema.Array,
				Description: "Array of event categorizations",
				Items:       &item,
			},
			"summary": {
				Type:        jsonschema.String,
				Description: "Brief summary of the categorization results",
			},
		},
		Required:             []string{"categorizations", "summary"},
		AdditionalProperties: false,
	}
}
