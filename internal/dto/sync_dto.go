package dto

import "time"

type QueueStatusResponse struct {
	Online      bool       `json:"online"`
	QueueSize   int        `json:"queue_size"`
	Capacity    int        `json:"capacity"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	DeadLetters int64      `json:"dead_letters"`
}

type SyncResultResponse struct {
	Attempted int `json:"attempted"`
	Remaining int `json:"remaining"`
}
