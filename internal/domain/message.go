package domain

// Message is the only payload carried over a subscriber channel.
type Message struct {
	Text string `json:"text"`
}
