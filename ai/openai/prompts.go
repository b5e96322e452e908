package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/linestream/core"
)

const sentimentResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "sentiment": {
      "type": "string",
      "enum": [%s]
    },
    "scores": {
      "type": "object",
      "properties": {
        "positive": {"type": "number", "minimum": 0, "maximum": 1},
        "negative": {"type": "number", "minimum": 0, "maximum": 1},
        "neutral":  {"type": "number", "minimum": 0, "maximum": 1},
        "mixed":    {"type": "number", "minimum": 0, "maximum": 1}
      },
      "required": ["positive", "negative", "neutral", "mixed"],
      "additionalProperties": false
    }
  },
  "required": ["sentiment", "scores"],
  "additionalProperties": false
}`

const sentimentPromptTemplate = `Classify the overall sentiment of the given text and return it as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- sentiment must be exactly one of: %s.
- Use MIXED when the text clearly carries both positive and negative sentiment.
- Use NEUTRAL for factual statements, questions and text without emotional content.
- scores are your confidence in each label, between 0 and 1, and should sum to 1.
- The text may be informal, misspelled or a fragment. Judge the sentiment it expresses, do not correct it.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Language: en
Text: "the new release is fantastic, thanks team"
Output:
{"sentiment":"POSITIVE","scores":{"positive":0.95,"negative":0.01,"neutral":0.03,"mixed":0.01}}

Example:
Language: en
Text: "delivery was late again and support never answered"
Output:
{"sentiment":"NEGATIVE","scores":{"positive":0.01,"negative":0.94,"neutral":0.04,"mixed":0.01}}

Example:
Language: en
Text: "great food but the service was awful"
Output:
{"sentiment":"MIXED","scores":{"positive":0.3,"negative":0.25,"neutral":0.05,"mixed":0.4}}

Example:
Language: en
Text: "the meeting moved to 3pm"
Output:
{"sentiment":"NEUTRAL","scores":{"positive":0.02,"negative":0.02,"neutral":0.95,"mixed":0.01}}`

func labelList(quoted bool) string {
	labels := make([]string, len(core.Sentiments))
	for i, s := range core.Sentiments {
		if quoted {
			labels[i] = `"` + string(s) + `"`
		} else {
			labels[i] = string(s)
		}
	}
	return strings.Join(labels, ", ")
}

// buildSystemPrompt creates the system prompt with the label set embedded.
func buildSystemPrompt() string {
	schema := fmt.Sprintf(sentimentResponseSchema, labelList(true))
	return fmt.Sprintf(sentimentPromptTemplate, schema, labelList(false))
}

// buildUserPrompt frames the text to classify.
func buildUserPrompt(text, languageCode string) string {
	return fmt.Sprintf("Language: %s\nText: %q", languageCode, text)
}
