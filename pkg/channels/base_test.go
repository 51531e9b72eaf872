package channels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benhli40/Orion/pkg/bus"
)

func TestIsAllowedEmptyListAdmitsEveryone(t *testing.T) {
	c := NewBaseChannel("test", bus.NewMessageBus(), nil)

	assert.True(t, c.IsAllowed("anyone"))
}

func TestIsAllowedMatchesIDOrUsername(t *testing.T) {
	c := NewBaseChannel("test", bus.NewMessageBus(), []string{"123456", "@benh"})

	assert.True(t, c.IsAllowed("123456"))
	assert.True(t, c.IsAllowed("123456|someuser"))
	assert.True(t, c.IsAllowed("999|benh"))
	assert.False(t, c.IsAllowed("999"))
	assert.False(t, c.IsAllowed("999|other"))
}

func TestHandleMessagePublishesAllowedOnly(t *testing.T) {
	mb := bus.NewMessageBus()
	defer mb.Close()
	c := NewBaseChannel("test", mb, []string{"ok-user"})

	c.HandleMessage("blocked", "chat-1", "should be dropped")
	c.HandleMessage("ok-user", "chat-1", "should arrive")

	msg, ok := mb.ConsumeInbound(context.Background())
	require.True(t, ok)
	assert.Equal(t, "should arrive", msg.Content)
	assert.Equal(t, "ok-user", msg.SenderID)
	assert.Equal(t, "test", msg.Channel)
}
