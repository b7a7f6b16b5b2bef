package notify_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/poltys-apps/dcare-pager-gw/pkg/notify"
	"github.com/poltys-apps/dcare-pager-gw/pkg/notify/mocks"
)

func TestChannelString(t *testing.T) {
	assert.Equal(t, "audible", notify.ChannelAudible.String())
	assert.Equal(t, "silent", notify.ChannelSilent.String())
	assert.Equal(t, "unknown", notify.Channel(7).String())
}

func TestMemorySink(t *testing.T) {
	s := notify.NewMemorySink()

	s.Notify(notify.ChannelAudible, 7, "Room 1", "Fire")
	s.Notify(notify.ChannelSilent, notify.StatusNotificationID, "dCare", "Disconnected")
	s.Notify(notify.ChannelAudible, 7, "Room 1", "Fire again")

	shown := s.Shown()
	assert.Len(t, shown, 2)
	assert.Equal(t, notify.StatusNotificationID, shown[0].ID)
	assert.Equal(t, "Fire again", shown[1].Body)

	s.Cancel(7)
	_, ok := s.Get(7)
	assert.False(t, ok)

	// Cancelling something never shown is fine.
	s.Cancel(12345)
	assert.Len(t, s.Shown(), 1)
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	s := notify.NewSlogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	s.Notify(notify.ChannelAudible, 7, "Room 1", "Fire")
	s.Cancel(7)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "body=Fire")
	assert.Contains(t, out, "msg=\"cancel notification\" id=7")
}

func TestMultiFansOut(t *testing.T) {
	a := mocks.NewMockSink(t)
	b := mocks.NewMockSink(t)

	a.EXPECT().Notify(notify.ChannelSilent, 3, "t", "b").Return().Once()
	b.EXPECT().Notify(notify.ChannelSilent, 3, "t", "b").Return().Once()
	a.EXPECT().Cancel(mock.Anything).Return().Once()
	b.EXPECT().Cancel(3).Return().Once()

	m := notify.Multi{a, b}
	m.Notify(notify.ChannelSilent, 3, "t", "b")
	m.Cancel(3)
}
