package archive

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/storage"
)

func newArchive() (*Archive, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))
	return New(storage.NewMemoryStore(), fc, zerolog.Nop()), fc
}

func ids(list []models.Published) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Config.ID
	}
	return out
}

func TestPublish_UpsertSemantics(t *testing.T) {
	a, fc := newArchive()
	ctx := context.Background()

	_, err := a.Publish(ctx, models.InvitationConfig{ID: "event-a", Line1: "A1"}, "link-a1")
	require.NoError(t, err)
	fc.Advance(time.Hour)
	_, err = a.Publish(ctx, models.InvitationConfig{ID: "event-b", Line1: "B"}, "link-b")
	require.NoError(t, err)

	list, err := a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"event-b", "event-a"}, ids(list), "new ids are prepended")

	fc.Advance(time.Hour)
	_, err = a.Publish(ctx, models.InvitationConfig{ID: "event-a", Line1: "A2"}, "link-a2")
	require.NoError(t, err)

	list, err = a.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"event-b", "event-a"}, ids(list), "same id overwrites in place")
	assert.Equal(t, "A2", list[1].Config.Line1)
	assert.Equal(t, "link-a2", list[1].Link)
	assert.Equal(t, fc.Now(), list[1].PublishedAt)
}

func TestPublish_AssignsMissingID(t *testing.T) {
	a, fc := newArchive()

	entry, err := a.Publish(context.Background(), models.InvitationConfig{Line1: "No id"}, "link")
	require.NoError(t, err)
	assert.Equal(t, models.NewEventID(fc.Now()), entry.Config.ID)
}

func TestGetAndDelete(t *testing.T) {
	a, _ := newArchive()
	ctx := context.Background()

	_, err := a.Publish(ctx, models.DefaultInvitation(), "link")
	require.NoError(t, err)

	got, err := a.Get(ctx, models.DefaultEventID)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultInvitation(), got.Config)

	_, err = a.Get(ctx, "event-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, a.Delete(ctx, models.DefaultEventID))
	assert.ErrorIs(t, a.Delete(ctx, models.DefaultEventID), ErrNotFound)

	list, err := a.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
