package chat

import "encoding/json"

// Envelope is the JSON frame exchanged with the chat gateway. Every frame
// names a command; request frames carry a client-assigned Seq which the
// gateway echoes on the matching ack/response frame.
type Envelope struct {
	Command string          `json:"command"`
	Seq     uint32          `json:"seq,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

const (
	CmdLogin       = "security login"
	CmdMessageSend = "message send"
	CmdGroupList   = "group list"
)

type LoginBody struct {
	Email    string `json:"username"`
	Password string `json:"password"`
}

type SendBody struct {
	Recipient int64  `json:"recipient"`
	IsGroup   bool   `json:"isGroup"`
	Data      string `json:"data"`
}

type InboundBody struct {
	Originator int64  `json:"originator"`
	Recipient  int64  `json:"recipient"`
	IsGroup    bool   `json:"isGroup"`
	Data       string `json:"data"`
	Timestamp  int64  `json:"timestamp"`
}

type AckBody struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type GroupListBody struct {
	Groups []Channel `json:"groups"`
}

// Message is the transport-neutral inbound message handed to subscribers.
// ChannelID is zero for private messages.
type Message struct {
	SenderID  int64
	ChannelID int64
	Private   bool
	Body      string
}
