package services

import (
	"time"

	"cagedesk/internal/adapters/realtime"
)

// Note: message dispatch is chatlink.Dispatcher
// Note: store access goes through the repositories package interfaces

// Publisher announces row changes to watching consoles
type Publisher interface {
	Publish(topic realtime.Topic, op realtime.Op, id string) realtime.Event
}

// Clock returns the current instant
type Clock func() time.Time
