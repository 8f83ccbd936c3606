package internal

import "time"

type TranslationRequest struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Timestamp  time.Time `json:"timestamp"`
}

// TranslationResult carries either a translation or an error message.
// TranslatedText is always serialized so callers can rely on the key.
type TranslationResult struct {
	TranslatedText string `json:"translated_text"`
	Error          string `json:"error,omitempty"`
}

func Failed(msg string) TranslationResult {
	return TranslationResult{Error: msg}
}

func Succeeded(text string) TranslationResult {
	return TranslationResult{TranslatedText: text}
}

func (r TranslationResult) OK() bool {
	return r.Error == ""
}
