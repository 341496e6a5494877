package models

// Speaker identifies who said a transcript line.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
)

type ChatLine struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}
