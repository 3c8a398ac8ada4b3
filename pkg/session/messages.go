package session

import "encoding/json"

// Inbound message types delivered by the agent service.
const (
	typeAudioStream        = "audioStream"
	typeNewAudioStream     = "newAudioStream"
	typeVoiceActivityStart = "voiceActivityStart"
	typeVoiceActivityEnd   = "voiceActivityEnd"
	typeUserTranscript     = "onUserTranscript"
	typeAgentTranscript    = "onAgentTranscript"
	typeServerError        = "error"
)

// setupMessage is the single control frame sent immediately after the
// socket opens. It declares the audio format contract for the session
// and must precede any audio in either direction.
type setupMessage struct {
	Type              string `json:"type"`
	APIKey            string `json:"apiKey"`
	UserID            string `json:"userId,omitempty"`
	OutputFormat      string `json:"outputFormat"`
	OutputSampleRate  int    `json:"outputSampleRate"`
	OutputBitDepth    int    `json:"outputBitDepth"`
	OutputChannels    int    `json:"outputChannels"`
	InputEncoding     string `json:"inputEncoding"`
	TimeoutSeconds    int    `json:"timeoutSeconds"`
	NoActivityTimeout int    `json:"noActivityTimeout"`
	SilenceThreshold  int    `json:"silenceThreshold"`
	KeepAlive         bool   `json:"keepAlive"`
}

// audioInMessage carries one base64 media-container chunk of
// microphone audio to the agent.
type audioInMessage struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// serverMessage is the tagged union of inbound frames, parsed at the
// socket boundary before dispatch. Audio payloads arrive in Data,
// transcript and error text in Message. Unknown types are ignored.
type serverMessage struct {
	Type    string `json:"type"`
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// parseServerMessage decodes one inbound JSON frame.
func parseServerMessage(data []byte) (serverMessage, error) {
	var msg serverMessage
	err := json.Unmarshal(data, &msg)
	return msg, err
}
