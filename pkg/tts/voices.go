package tts

// Voice describes a catalog entry for a selectable narrator voice.
type Voice struct {
	// Name is the human-readable voice name.
	Name string `json:"name"`

	// Accent describes the voice accent (e.g. american).
	Accent string `json:"accent"`

	// Language is the display language (e.g. English (US)).
	Language string `json:"language"`

	// LanguageCode is the BCP-47-style code (e.g. EN-US).
	LanguageCode string `json:"languageCode"`

	// Value is the provider voice ID passed to synthesis requests.
	Value string `json:"value"`

	// Sample is a URL to a short preview clip.
	Sample string `json:"sample"`

	// Gender is male or female.
	Gender string `json:"gender"`

	// Style describes the delivery style (e.g. Conversational, Narrative).
	Style string `json:"style"`
}

// catalog holds the built-in narrator voices.
var catalog = []Voice{
	{
		Name:         "Angelo",
		Accent:       "american",
		Language:     "English (US)",
		LanguageCode: "EN-US",
		Value:        "s3://voice-cloning-zero-shot/baf1ef41-36b6-428c-9bdf-50ba54682bd8/original/manifest.json",
		Sample:       "https://peregrine-samples.s3.us-east-1.amazonaws.com/parrot-samples/Angelo_Sample.wav",
		Gender:       "male",
		Style:        "Conversational",
	},
	{
		Name:         "Deedee",
		Accent:       "american",
		Language:     "English (US)",
		LanguageCode: "EN-US",
		Value:        "s3://voice-cloning-zero-shot/e040bd1b-f190-4bdb-83f0-75ef85b18f84/original/manifest.json",
		Sample:       "https://peregrine-samples.s3.us-east-1.amazonaws.com/parrot-samples/Deedee_Sample.wav",
		Gender:       "female",
		Style:        "Conversational",
	},
	{
		Name:         "Briggs",
		Accent:       "american",
		Language:     "English (US)",
		LanguageCode: "EN-US",
		Value:        "s3://voice-cloning-zero-shot/71cdb799-1e03-41c6-8a05-f7cd55134b0b/original/manifest.json",
		Sample:       "https://peregrine-samples.s3.us-east-1.amazonaws.com/parrot-samples/Briggs_Sample.wav",
		Gender:       "male",
		Style:        "Narrative",
	},
}

// Voices returns the built-in voice catalog.
func Voices() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a catalog voice by name.
func Lookup(name string) (Voice, error) {
	for _, v := range catalog {
		if v.Name == name {
			return v, nil
		}
	}
	return Voice{}, ErrUnknownVoice
}

// DefaultVoice returns the first catalog voice.
func DefaultVoice() Voice {
	return catalog[0]
}
