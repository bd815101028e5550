package models

import "time"

// ExecutionLogEntry is one line of a simulated run.
type ExecutionLogEntry struct {
	NodeID    string     `json:"nodeId"`
	Status    NodeStatus `json:"status"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
}
