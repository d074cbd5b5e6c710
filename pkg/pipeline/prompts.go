package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-brief/pkg/utils"
	"github.com/invopop/jsonschema"
)

const SummaryPrompt = `You are an assistant who analyzes complex conversations and recordings and pinpoints what matters.
Analyze the provided data and answer strictly in the JSON format below.
Do not add any explanation outside of the JSON.

{
  "myArgument": "Summary of my core argument",
  "otherArgument": "Summary of the other party's core argument",
  "context": "Summary of the overall background, the main conflict and the conclusion"
}

Write every field in the language of the conversation.`

const TranscriptionPrompt = `You are a professional stenographer.
Listen to the provided audio file and transcribe every part of the conversation exactly, leaving nothing out (full transcription).

[Guidelines]
1. Start a new line whenever the speaker changes and label speakers as 'Speaker 1:', 'Speaker 2:' and so on.
2. Record technical terms (especially construction, civil engineering and facilities), numbers and units (m, cm, kg, slope, ground level and so on) exactly as heard.
3. Do not summarize. Do not guess or omit; transcribe the entire content verbatim as heard.
4. Mark only background noise or truly unintelligible parts as [unclear].
5. Write in the language spoken, and spell any mixed-in English words and technical terms accurately.`

// DefaultSummaryModels and DefaultTranscriptionModels are tried in order:
// cheaper and faster models first, more capable or experimental ones last.
var (
	DefaultSummaryModels = []string{
		"gemini-1.5-flash",
		"gemini-1.5-flash-latest",
		"gemini-1.5-pro",
		"gemini-2.0-flash-exp",
	}
	DefaultTranscriptionModels = []string{
		"gemini-1.5-flash",
		"gemini-1.5-flash-8b",
		"gemini-1.5-pro",
		"gemini-2.0-flash-exp",
	}
)

// BuildTranscriptionPrompt appends keyword hints to base. Empty keyword
// entries are dropped; with no usable keywords base is returned unchanged.
func BuildTranscriptionPrompt(base string, keywords []model.AudioKeyword) (string, error) {
	hint, err := buildCommonMissedWordsPrompt(keywords)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	if hint == "" {
		return base, nil
	}
	return strings.TrimRight(base, "\n") + "\n\n" + hint, nil
}

func buildCommonMissedWordsPrompt(keywords []model.AudioKeyword) (string, error) {
	normalizedKeywords := normalizeAudioKeywords(keywords)
	if len(normalizedKeywords) == 0 {
		return "", nil
	}

	keywordsJSON, err := json.Marshal(normalizedKeywords)
	if err != nil {
		return "", err
	}

	return "Common missed words: " + string(keywordsJSON), nil
}

func normalizeAudioKeywords(keywords []model.AudioKeyword) []model.AudioKeyword {
	normalized := make([]model.AudioKeyword, 0, len(keywords))
	for _, keyword := range keywords {
		word := strings.TrimSpace(keyword.Word)
		definition := strings.TrimSpace(keyword.Definition)
		commonMistypes := make([]string, 0, len(keyword.CommonMistypes))
		for _, candidate := range keyword.CommonMistypes {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			commonMistypes = append(commonMistypes, candidate)
		}

		if word == "" && definition == "" && len(commonMistypes) == 0 {
			continue
		}

		normalized = append(normalized, model.AudioKeyword{
			Word:           word,
			CommonMistypes: commonMistypes,
			Definition:     definition,
		})
	}
	return normalized
}

// SummarySchema reflects model.Summary into a JSON schema for providers that
// can constrain their output.
func SummarySchema() (model.JSONSchema, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(model.Summary{})

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap model.JSONSchema
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	// Draft and id keys are rejected by some provider schema validators.
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap, nil
}
