package db

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Journal appends one JSON line per store mutation to a rotating file.
// It is an audit trail only; the snapshot file stays the source of truth.
type Journal struct {
	logger zerolog.Logger
	closer io.Closer
}

// NewJournal opens a journal at path. An empty path returns a journal that
// discards everything.
func NewJournal(path string) *Journal {
	if strings.TrimSpace(path) == "" {
		return &Journal{logger: zerolog.Nop()}
	}

	w := &lj.Logger{Filename: path, MaxSize: 5, MaxBackups: 3, MaxAge: 28}
	return newJournalWriter(w, w)
}

func newJournalWriter(w io.Writer, closer io.Closer) *Journal {
	logger := zerolog.New(w).With().Timestamp().Str("component", "store").Logger()
	return &Journal{logger: logger, closer: closer}
}

// Record writes a single mutation entry. Zero ids are omitted.
func (j *Journal) Record(op string, epicID, storyID uint64, err error) {
	if j == nil {
		return
	}

	ev := j.logger.Info()
	if err != nil {
		ev = j.logger.Error().Err(err)
	}
	ev = ev.Str("op", op)
	if epicID != 0 {
		ev = ev.Uint64("epic_id", epicID)
	}
	if storyID != 0 {
		ev = ev.Uint64("story_id", storyID)
	}
	ev.Msg("mutation")
}

// Close releases the underlying file, if any.
func (j *Journal) Close() error {
	if j == nil || j.closer == nil {
		return nil
	}
	return j.closer.Close()
}
