package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordNeverSurfacesFailure(t *testing.T) {
	// No pool forces every write to fail; the caller must not notice.
	r := NewRecorder(nil, testLogger(), time.Second)

	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{
			ActorID: "user-1",
			GuildID: "guild-1",
			Action:  "admin.league.manage",
			Result:  "denied",
			Reason:  "no_access_token",
		})
	})
}

func TestRecordDetachedDrains(t *testing.T) {
	r := NewRecorder(nil, testLogger(), time.Second)

	for i := 0; i < 10; i++ {
		r.RecordDetached(Entry{Action: "admin.settings.manage", Result: "allowed"})
	}
	assert.NotPanics(t, r.Drain)
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	r := NewRecorder(nil, testLogger(), time.Second)

	// Still must not panic or surface an error.
	assert.NotPanics(t, func() {
		r.Record(context.Background(), Entry{ActorID: "user-1"})
	})
}
