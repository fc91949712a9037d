// Package events records domain events (add-to-cart, removals, admin
// actions) for the dashboard and fans them out to in-process subscribers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

const logKey = "events"

// Log is the append-only event list behind the KV port.
type Log struct {
	kv  store.KV
	bus *Bus
	now func() time.Time
}

func NewLog(kv store.KV, bus *Bus) *Log {
	return &Log{kv: kv, bus: bus, now: time.Now}
}

// SetClock overrides the timestamp source. Tests only.
func (l *Log) SetClock(now func() time.Time) { l.now = now }

func (l *Log) load() ([]models.Event, error) {
	raw, ok, err := l.kv.Get(logKey)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var evs []models.Event
	if err := json.Unmarshal([]byte(raw), &evs); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	return evs, nil
}

// Append records an event and publishes it on the bus.
func (l *Log) Append(typ string, data map[string]any) error {
	evs, err := l.load()
	if err != nil {
		return err
	}
	ev := models.Event{Type: typ, Data: data, Timestamp: l.now().UnixMilli()}
	evs = append(evs, ev)
	raw, err := json.Marshal(evs)
	if err != nil {
		return err
	}
	if err := l.kv.Set(logKey, string(raw)); err != nil {
		return err
	}
	if l.bus != nil {
		l.bus.Publish(ev)
	}
	return nil
}

// List returns all events in stored (oldest first) order.
func (l *Log) List() ([]models.Event, error) {
	return l.load()
}

// Recent returns up to n events, newest first. The dashboard shows 50.
func (l *Log) Recent(n int) ([]models.Event, error) {
	evs, err := l.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, n)
	for i := len(evs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, evs[i])
	}
	return out, nil
}

func (l *Log) Clear() error {
	return l.kv.Remove(logKey)
}
