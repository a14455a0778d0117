package streaming

import (
	"context"

	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/jsonutil"
	"github.com/oreeke/twipsybot/internal/model"
)

// mentionWireTypes are the main-channel sub-types delivered to mention
// handlers.
var mentionWireTypes = map[string]bool{
	"mention": true,
	"reply":   true,
}

// suppressedNotificationTypes are notification inner types already
// delivered through their own main-channel events; dispatching them again
// would double-deliver.
var suppressedNotificationTypes = map[string]bool{
	"mention":        true,
	"reply":          true,
	"newChatMessage": true,
}

// processItem routes one dequeued event to its canonical handlers. It runs
// on a dispatch worker.
func (c *Client) processItem(ctx context.Context, item *queueItem) {
	switch {
	case item.channel.Name == constants.ChannelMain:
		c.processMainEvent(ctx, item)
	case model.IsChatChannel(item.channel.Name):
		c.processChatEvent(ctx, item)
	case model.IsNoteChannel(item.channel.Name):
		c.processNoteEvent(ctx, item)
	default:
		c.log.Debug("Event on unhandled channel",
			"channel", item.channel.Name, "type", item.wireType)
		c.dumpEvent(item.channel.Name, item.payload)
	}
}

func (c *Client) processMainEvent(ctx context.Context, item *queueItem) {
	switch {
	case mentionWireTypes[item.wireType]:
		c.callHandlers(ctx, string(model.EventMention), &model.Event{
			Type:        model.EventMention,
			ID:          item.id,
			ChannelName: item.channel.Name,
			ChannelID:   item.channel.ID,
			Body:        item.payload,
		})
	case item.wireType == "newChatMessage":
		c.processMainChatMessage(ctx, item)
	case item.wireType == "notification":
		c.processNotification(ctx, item)
	default:
		c.log.Debug("Unknown main channel event type", "type", item.wireType)
		c.dumpEvent(item.wireType, item.payload)
	}
}

// processMainChatMessage handles the main-channel shape of a direct
// message: it opens (or refreshes) the sender's ephemeral chatUser channel
// and then delivers the message through the chat path so read receipts
// and handlers behave identically for both wire shapes.
func (c *Client) processMainChatMessage(ctx context.Context, item *queueItem) {
	channelID := c.chat.ensureChannel(ctx, item.payload)
	if channelID == "" {
		return
	}

	message := jsonutil.CloneMap(item.payload)
	message["streamingChannelId"] = channelID
	message["type"] = "message"
	c.deliverChatMessage(ctx, channelID, message)
}

func (c *Client) processChatEvent(ctx context.Context, item *queueItem) {
	if item.wireType != "message" {
		c.log.Debug("Unknown chat channel event type",
			"channel", item.channel.Name, "type", item.wireType)
		c.dumpEvent(item.wireType, item.payload)
		return
	}
	c.deliverChatMessage(ctx, item.channel.ID, item.payload)
}

// deliverChatMessage annotates a chat message with the cached sender
// profile when the wire omitted it, acknowledges it with a read receipt,
// refreshes the channel's inactivity timer, and invokes message handlers.
func (c *Client) deliverChatMessage(ctx context.Context, channelID string, message map[string]any) {
	fromUserID := jsonutil.StringFromMap(message, "fromUserId")
	if fromUserID != "" && jsonutil.MapFromMap(message, "fromUser") == nil {
		if profile := c.chat.profile(fromUserID); profile != nil {
			message = jsonutil.CloneMap(message)
			message["fromUser"] = profile
		}
	}

	messageID := jsonutil.StringFromMap(message, "id")
	streamChannelID := jsonutil.StringFromMap(message, "streamingChannelId")
	if streamChannelID == "" {
		streamChannelID = channelID
	}
	if streamChannelID != "" && messageID != "" {
		c.sendBestEffort(ctx, channelSendFrame(streamChannelID, "read", map[string]any{"id": messageID}))
		c.chat.refresh(streamChannelID)
	}

	c.callHandlers(ctx, string(model.EventMessage), &model.Event{
		Type:        model.EventMessage,
		ID:          messageID,
		ChannelName: constants.ChannelChatUser,
		ChannelID:   streamChannelID,
		Body:        message,
	})
}

// processNotification applies the double-delivery rules: inner types that
// arrive through their own main-channel events are suppressed, inner
// types matching a registered handler category are redirected there, and
// everything else goes to the generic notification handlers.
func (c *Client) processNotification(ctx context.Context, item *queueItem) {
	notification := jsonutil.MapFromMap(item.payload, "notification")
	innerType := jsonutil.StringFromMap(notification, "type")

	if suppressedNotificationTypes[innerType] {
		return
	}

	if innerType != "" && c.hasHandlers(innerType) {
		c.callHandlers(ctx, innerType, &model.Event{
			Type:        model.EventType(innerType),
			ID:          jsonutil.StringFromMap(notification, "id"),
			ChannelName: item.channel.Name,
			ChannelID:   item.channel.ID,
			Body:        notification,
		})
		return
	}

	c.callHandlers(ctx, string(model.EventNotification), &model.Event{
		Type:        model.EventNotification,
		ID:          item.id,
		ChannelName: item.channel.Name,
		ChannelID:   item.channel.ID,
		Body:        item.payload,
	})
}

// processNoteEvent unwraps a note and annotates it with the originating
// channel name for handlers that aggregate multiple timelines.
func (c *Client) processNoteEvent(ctx context.Context, item *queueItem) {
	if item.wireType != "note" {
		c.log.Debug("Unknown note channel event type",
			"channel", item.channel.Name, "type", item.wireType)
		c.dumpEvent(item.wireType, item.payload)
		return
	}

	payload := jsonutil.MapFromMap(item.payload, "body")
	if payload == nil {
		payload = item.payload
	} else {
		payload = jsonutil.CloneMap(payload)
	}
	if _, present := payload["streamingChannel"]; !present {
		payload["streamingChannel"] = item.channel.Name
	}

	c.log.Debug("Received note", "channel", item.channel.Name, "id", item.id)
	c.callHandlers(ctx, string(model.EventNote), &model.Event{
		Type:        model.EventNote,
		ID:          item.id,
		ChannelName: item.channel.Name,
		ChannelID:   item.channel.ID,
		Body:        payload,
	})
}
