package ws

import "github.com/NanamiChiaki-7/Notiobsidian/internal/reminder"

// inbound is the envelope clients send. Only Type is required; the other
// fields are read per message type and anything unrecognized is dropped
// without a reply (this is a monitoring channel, not a command API).
type inbound struct {
	Type    string            `json:"type"`
	Notices []reminder.Notice `json:"notices,omitempty"`
	Events  []reminder.Event  `json:"events,omitempty"`
	Data    *reminder.Notice  `json:"data,omitempty"`
}

type connectedMsg struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type pongMsg struct {
	Type string `json:"type"`
}
