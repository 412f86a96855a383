package proc

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopQueue
)

func (m LoopMode) String() string {
	if m == LoopQueue {
		return "queue"
	}
	return "none"
}

type PlaybackState int

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// QueueItem is one playable unit. Encoded is the audio node's opaque track handle.
type QueueItem struct {
	Title        string
	URI          string
	Author       string
	Duration     time.Duration
	ThumbnailURL string
	IsStream     bool
	Encoded      string

	RequesterID   snowflake.ID
	RequesterName string
}

// Live reports whether the item has no meaningful length.
func (i QueueItem) Live() bool {
	return i.IsStream || i.Duration <= 0
}

type LoadType int

const (
	LoadEmpty LoadType = iota
	LoadTrack
	LoadPlaylist
	LoadSearch
)

// Resolution is what the audio node returned for a query, already mapped to queue items.
type Resolution struct {
	Type         LoadType
	Items        []QueueItem
	PlaylistName string
}
