// Package provider holds the types exchanged between upload discovery
// backends and the sync pipeline.
package provider

import (
	"fmt"
	"time"
)

// Channel identifies a subscribed channel.
type Channel struct {
	ID   string
	Name string
}

// Candidate is a discovered upload before duration filtering. Duration is
// empty until resolved.
type Candidate struct {
	VideoID      string
	ChannelID    string
	ChannelName  string
	Title        string
	ThumbnailURL string
	PublishedAt  time.Time
	Duration     string
}

// Error describes a failed provider call.
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
