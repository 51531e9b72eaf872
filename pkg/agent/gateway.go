package agent

import (
	"context"

	"github.com/benhli40/Orion/pkg/bus"
	"github.com/benhli40/Orion/pkg/logger"
)

// RunGateway bridges channel messages into the pipeline: every inbound
// message gets a Reply published back to its originating chat.
func (a *Assistant) RunGateway(ctx context.Context, mb *bus.MessageBus) {
	logger.InfoC("agent", "Gateway loop started")

	for {
		msg, ok := mb.ConsumeInbound(ctx)
		if !ok {
			// Context cancelled or bus closed; either way we are done.
			logger.InfoC("agent", "Gateway loop stopped")
			return
		}

		reply := a.Reply(ctx, a.stripWakePrefix(msg.Content))
		if reply == "" {
			continue
		}

		mb.PublishOutbound(bus.OutboundMessage{
			Channel: msg.Channel,
			ChatID:  msg.ChatID,
			Content: reply,
		})
	}
}
