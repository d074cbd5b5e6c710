package model

// AudioKeyword is a domain term that transcription tends to get wrong.
type AudioKeyword struct {
	Word           string   `json:"word,omitempty" yaml:"word"`
	CommonMistypes []string `json:"common_mistypes,omitempty" yaml:"common_mistypes"`
	Definition     string   `json:"definition,omitempty" yaml:"definition"`
}
