package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewTaskMessage marshals a task lifecycle message, e.g. action
// "task.created" with the task as payload.
func NewTaskMessage(action string, payload interface{}) []byte {
	b, _ := json.Marshal(Message{Action: action, Payload: payload})
	return b
}
