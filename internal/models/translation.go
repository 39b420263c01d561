package models

// TranslationRequest carries one text with its source and target language
// codes.
type TranslationRequest struct {
	Text   string
	Source string
	Target string
}

// TranslationResult is the normalized translation payload.
type TranslationResult struct {
	Translation string
}
