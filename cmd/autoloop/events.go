package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ChamsBouzaiene/autoloop/internal/engine"
)

// eventLog appends every cycle event to a file as one JSON object per line.
type eventLog struct {
	ch   chan engine.Event
	done chan struct{}
	f    *os.File
	err  error
}

type eventLine struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	Data any       `json:"data,omitempty"`
}

func openEventLog(path string) (*eventLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	l := &eventLog{
		ch:   make(chan engine.Event, 64),
		done: make(chan struct{}),
		f:    f,
	}
	go l.drain()
	return l, nil
}

func (l *eventLog) drain() {
	defer close(l.done)
	enc := json.NewEncoder(l.f)
	for ev := range l.ch {
		if err := enc.Encode(eventLine{Time: time.Now().UTC(), Kind: ev.Kind, Data: ev.Data}); err != nil && l.err == nil {
			l.err = fmt.Errorf("failed to write event %q: %w", ev.Kind, err)
		}
	}
}

// Hook returns the engine hook feeding this log.
func (l *eventLog) Hook() engine.EventHook {
	return engine.EventHook{Ch: l.ch}
}

// Close flushes pending events. The hook must not be used afterwards.
func (l *eventLog) Close() error {
	close(l.ch)
	<-l.done
	if err := l.f.Close(); err != nil && l.err == nil {
		l.err = err
	}
	return l.err
}
