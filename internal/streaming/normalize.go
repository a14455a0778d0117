package streaming

import (
	"github.com/oreeke/twipsybot/internal/constants"
	"github.com/oreeke/twipsybot/internal/jsonutil"
	"github.com/oreeke/twipsybot/internal/model"
)

// normalizeChannelEvent maps a wire sub-type and payload arriving on a
// channel to its normalized form. The returned payload always carries a
// "type" key matching the returned sub-type. Unknown sub-types pass through
// unchanged; routing decides what to do with them. Normalization never
// fails.
func normalizeChannelEvent(channelName, wireType string, payload map[string]any) (string, map[string]any) {
	if channelName == constants.ChannelMain {
		return normalizeMainEvent(wireType, payload)
	}
	if model.IsChatChannel(channelName) {
		return normalizeChatEvent(wireType, payload)
	}
	return wireType, wrapGeneric(wireType, payload)
}

func normalizeMainEvent(wireType string, payload map[string]any) (string, map[string]any) {
	switch wireType {
	case "mention", "reply":
		return wireType, wrapNote(wireType, payload)
	case "newChatMessage":
		return wireType, flattenChatMessage(wireType, payload)
	case "notification", "unreadNotification":
		return "notification", wrapNotification(payload)
	default:
		return wireType, wrapGeneric(wireType, payload)
	}
}

func normalizeChatEvent(wireType string, payload map[string]any) (string, map[string]any) {
	if wireType != "message" {
		return wireType, wrapGeneric(wireType, payload)
	}
	return "message", flattenChatMessage("message", payload)
}

// wrapNote shapes a mention/reply event as {type, note, id}, hoisting the
// note id to the top level for dedup.
func wrapNote(wireType string, note map[string]any) map[string]any {
	wrapped := map[string]any{"type": wireType, "note": note}
	if id := jsonutil.StringFromMap(note, "id"); id != "" {
		wrapped["id"] = id
	}
	return wrapped
}

// wrapNotification shapes a notification as {type:"notification",
// notification, id}.
func wrapNotification(payload map[string]any) map[string]any {
	wrapped := map[string]any{"type": "notification", "notification": payload}
	if id := jsonutil.StringFromMap(payload, "id"); id != "" {
		wrapped["id"] = id
	}
	return wrapped
}

// flattenChatMessage keeps the message payload as-is, tagged with the
// normalized sub-type.
func flattenChatMessage(wireType string, message map[string]any) map[string]any {
	normalized := jsonutil.CloneMap(message)
	normalized["type"] = wireType
	return normalized
}

func wrapGeneric(wireType string, payload map[string]any) map[string]any {
	return map[string]any{"type": wireType, "body": payload}
}

// extractEventID pulls the event id used for dedup: the top-level wire id
// when present, falling back to the inner body's id for note events.
func extractEventID(wireType string, payload map[string]any) string {
	id := jsonutil.StringFromMap(payload, "id")
	if id != "" || wireType != "note" {
		return id
	}
	if inner := jsonutil.MapFromMap(payload, "body"); inner != nil {
		return jsonutil.StringFromMap(inner, "id")
	}
	return ""
}

// isBareNote recognizes a timeline frame whose body carries no event type
// but is structurally a note. Some instances push bare notes on timeline
// channels; such frames are treated as "note" events.
func isBareNote(channelName string, payload map[string]any) bool {
	return model.IsNoteChannel(channelName) && model.LooksLikeNote(payload)
}
