package line

// maxTextLength is the Messaging API limit for one text message
const maxTextLength = 5000

// Message is a single message object; only text messages are sent
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextMessage builds a text message, truncating to the API limit
func TextMessage(text string) Message {
	runes := []rune(text)
	if len(runes) > maxTextLength {
		text = string(runes[:maxTextLength])
	}
	return Message{Type: "text", Text: text}
}

// PushRequest represents the body of POST /v2/bot/message/push
type PushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// MulticastRequest represents the body of POST /v2/bot/message/multicast
type MulticastRequest struct {
	To       []string  `json:"to"`
	Messages []Message `json:"messages"`
}

// ErrorResponse represents an error body returned by the Messaging API
type ErrorResponse struct {
	Message string `json:"message"`
	Details []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details,omitempty"`
}
