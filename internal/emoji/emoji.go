package emoji

import "sync/atomic"

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"success":    {"✅", "[OK]"},
	"statistics": {"📊", "[STATS]"},
	"satellite":  {"🛰️", "[SAT]"},
	"region":     {"🗺️", "[MAP]"},
	"upload":     {"📤", "[UP]"},
	"history":    {"🕘", "[HIST]"},
	"calendar":   {"📅", "[CAL]"},
	"image":      {"🖼️", "[IMG]"},
	"urban":      {"🏙️", "[URB]"},
	"forest":     {"🌲", "[FOR]"},
	"water":      {"💧", "[WAT]"},
	"user":       {"👤", "[USR]"},
	"lock":       {"🔒", "[LOCK]"},
	"watch":      {"👀", "[WATCH]"},
	"server":     {"🖥️", "[SRV]"},
	"file":       {"📄", "[FILE]"},
	"folder":     {"📁", "[DIR]"},
	"target":     {"🎯", "[>]"},
	"hint":       {"💡", "[TIP]"},
	"rocket":     {"🚀", "[GO]"},
	"door":       {"🚪", "[EXIT]"},
	"hourglass":  {"⏳", "[...]"},
}

var emojiDisabled atomic.Bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled.Store(disabled)
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled.Load()
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled.Load() {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// ForClass returns the symbol of a land-cover change class
func ForClass(class string) string {
	switch class {
	case "urbanization":
		return GetEmoji("urban")
	case "deforestation":
		return GetEmoji("forest")
	case "water_body_change":
		return GetEmoji("water")
	default:
		return GetEmoji("statistics")
	}
}
