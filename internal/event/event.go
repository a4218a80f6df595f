// Package event defines the progress events emitted by the replication
// engine and consumed by presenters and log sinks.
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	DirCreated
	FileCopied
	FileFailed
	FileSkipped
	FilePartial
	HardlinkCreated
	LinkCreated
	VerifyStarted
	VerifyOK
	VerifyFailed
)

var typeNames = [...]string{
	ScanStarted:     "ScanStarted",
	ScanComplete:    "ScanComplete",
	DirCreated:      "DirCreated",
	FileCopied:      "FileCopied",
	FileFailed:      "FileFailed",
	FileSkipped:     "FileSkipped",
	FilePartial:     "FilePartial",
	HardlinkCreated: "HardlinkCreated",
	LinkCreated:     "LinkCreated",
	VerifyStarted:   "VerifyStarted",
	VerifyOK:        "VerifyOK",
	VerifyFailed:    "VerifyFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative to the source root
	Size      int64
	Error     error
}
