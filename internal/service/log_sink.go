package service

import (
	"context"
	"log"
	"sync"
	"time"

	"tradepulse/internal/domain"
)

// LogWriter persists event log entries.
type LogWriter interface {
	InsertEntry(ctx context.Context, entry domain.LogEntry) error
}

// LogSink fans every bot event out to the database and to any live
// stream subscribers. Append never blocks the engine: persistence
// failures are logged and dropped, slow subscribers lose entries.
type LogSink struct {
	writer LogWriter

	mu   sync.Mutex
	subs map[string][]chan domain.LogEntry
}

func NewLogSink(writer LogWriter) *LogSink {
	return &LogSink{
		writer: writer,
		subs:   make(map[string][]chan domain.LogEntry),
	}
}

func (s *LogSink) Append(ctx context.Context, botID string, level domain.LogLevel, message string) {
	entry := domain.LogEntry{
		BotID:     botID,
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	}

	if s.writer != nil {
		if err := s.writer.InsertEntry(ctx, entry); err != nil {
			log.Printf("log entry insert failed for bot %s: %v", botID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[botID] {
		select {
		case ch <- entry:
		default:
		}
	}
}

// Subscribe returns a channel of future entries for one bot and a
// function to detach it.
func (s *LogSink) Subscribe(botID string) (<-chan domain.LogEntry, func()) {
	ch := make(chan domain.LogEntry, 64)

	s.mu.Lock()
	s.subs[botID] = append(s.subs[botID], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subs[botID]
		for i, c := range subs {
			if c == ch {
				s.subs[botID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}
