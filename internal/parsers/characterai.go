package parsers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// CharacterAIParser reads Character.AI exports: the official data export
// and the CAI Tools browser-extension shapes. An export carries character
// metadata (name, description, greeting) plus one or more chat histories;
// the parser auto-detects which variant it is looking at.
type CharacterAIParser struct{}

func NewCharacterAIParser() *CharacterAIParser { return &CharacterAIParser{} }

func (p *CharacterAIParser) Source() string { return "characterai" }

func (p *CharacterAIParser) CanParse(path string) bool {
	if filepath.Ext(path) != ".json" {
		return false
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return false
	}
	return looksLikeCharacterAI(data)
}

// characterMarkers are the top-level fields specific to Character.AI
// exports.
var characterMarkers = []string{
	"character", "char", "bot", "character_name", "bot_name",
	"greeting", "histories", "chats",
}

// looksLikeCharacterAI checks for the structural markers of a
// Character.AI export: character metadata fields, chat histories, or a
// participant list carrying is_human / character_id.
func looksLikeCharacterAI(data any) bool {
	switch v := data.(type) {
	case map[string]any:
		if hasAnyKey(v, characterMarkers) {
			return true
		}
		if participants, ok := v["participants"].([]any); ok {
			for _, item := range participants {
				if obj, ok := item.(map[string]any); ok && hasAnyKey(obj, []string{"is_human", "character_id"}) {
					return true
				}
			}
		}
	case []any:
		if len(v) == 0 {
			return false
		}
		if first, ok := v[0].(map[string]any); ok {
			return hasAnyKey(first, []string{"character", "bot", "histories", "character_name"})
		}
	}
	return false
}

func (p *CharacterAIParser) Parse(path string) (*models.Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "file is not valid JSON"}
	}

	skipped := 0
	conversations := p.parseAny(data, &skipped)
	warnSkipped(p.Source(), skipped, "messages")
	return models.NewCorpus(conversations, ""), nil
}

// characterProfile is the character metadata attached to every
// conversation parsed from an export.
type characterProfile struct {
	name        string
	description string
	greeting    string
}

func (c characterProfile) metadata() map[string]string {
	m := map[string]string{"character_name": c.name}
	if c.description != "" {
		m["character_description"] = c.description
	}
	if c.greeting != "" {
		m["character_greeting"] = c.greeting
	}
	return m
}

// parseAny dispatches on the export shape: a character object with
// histories, a single conversation, an array of character chats, or a
// bare message array.
func (p *CharacterAIParser) parseAny(data any, skipped *int) []*models.Conversation {
	var conversations []*models.Conversation
	add := func(conv *models.Conversation) {
		if conv != nil {
			conversations = append(conversations, conv)
		}
	}

	switch v := data.(type) {
	case map[string]any:
		profile := profileOf(v)
		if histories, ok := firstValue(v, []string{"histories", "chats", "conversations"}).([]any); ok && len(histories) > 0 {
			for i, item := range histories {
				add(p.parseHistory(item, fmt.Sprintf("char_%s_%d", profile.name, i), profile, skipped))
			}
			return conversations
		}
		if hasAnyKey(v, []string{"messages", "msgs"}) {
			convID := firstString(v, []string{"id", "conversation_id"})
			if convID == "" {
				convID = fmt.Sprintf("char_%s_0", profile.name)
			}
			messages, _ := firstValue(v, []string{"messages", "msgs"}).([]any)
			add(p.buildConversation(messages, convID, profile, skipped))
		}

	case []any:
		if len(v) == 0 {
			return nil
		}
		if first, ok := v[0].(map[string]any); ok && hasAnyKey(first, []string{"character", "character_name"}) {
			// Array of per-character conversations.
			for i, item := range v {
				obj, ok := item.(map[string]any)
				if !ok {
					*skipped++
					continue
				}
				profile := profileOf(obj)
				if profile.name == unknownCharacter {
					profile.name = fmt.Sprintf("Character_%d", i)
				}
				convID := firstString(obj, []string{"id", "conversation_id"})
				if convID == "" {
					convID = fmt.Sprintf("char_%s_%d", profile.name, i)
				}
				messages, _ := firstValue(obj, []string{"messages", "msgs"}).([]any)
				add(p.buildConversation(messages, convID, profile, skipped))
			}
			return conversations
		}
		// Bare message array: one conversation.
		add(p.buildConversation(v, "conversation_0", characterProfile{name: "Character"}, skipped))
	}
	return conversations
}

const unknownCharacter = "Unknown Character"

// profileOf pulls character metadata from a top-level export object,
// falling back to a nested character object.
func profileOf(obj map[string]any) characterProfile {
	nested, _ := obj["character"].(map[string]any)

	name := firstString(obj, []string{"character_name", "char_name", "name"})
	if name == "" && nested != nil {
		name = firstString(nested, []string{"name"})
	}
	if name == "" {
		name = unknownCharacter
	}

	description := firstString(obj, []string{"description", "char_description"})
	if description == "" && nested != nil {
		description = firstString(nested, []string{"description"})
	}

	greeting := firstString(obj, []string{"greeting", "first_mes"})
	if greeting == "" && nested != nil {
		greeting = firstString(nested, []string{"greeting"})
	}

	return characterProfile{name: name, description: description, greeting: greeting}
}

// parseHistory handles one entry of the histories array: either an
// object with its own messages list, or a bare message list.
func (p *CharacterAIParser) parseHistory(history any, fallbackID string, profile characterProfile, skipped *int) *models.Conversation {
	switch h := history.(type) {
	case map[string]any:
		convID := firstString(h, []string{"id", "history_id"})
		if convID == "" {
			convID = fallbackID
		}
		messages, _ := firstValue(h, []string{"messages", "msgs"}).([]any)
		return p.buildConversation(messages, convID, profile, skipped)
	case []any:
		return p.buildConversation(h, fallbackID, profile, skipped)
	}
	*skipped++
	return nil
}

func (p *CharacterAIParser) buildConversation(messages []any, convID string, profile characterProfile, skipped *int) *models.Conversation {
	var events []models.InteractionEvent
	for _, item := range messages {
		msg, ok := item.(map[string]any)
		if !ok {
			*skipped++
			continue
		}
		text := characterText(msg)
		if text == "" {
			*skipped++
			continue
		}
		events = append(events, models.InteractionEvent{
			ID:             eventID(firstString(msg, []string{"id", "message_id", "uuid"})),
			ConversationID: convID,
			Timestamp:      parseTimestamp(firstValue(msg, []string{"timestamp", "created_at", "send_date", "time"})),
			Role:           characterRole(msg),
			Text:           text,
			Metadata:       messageMetadata(msg, profile.name),
		})
	}
	if len(events) == 0 {
		return nil
	}
	sortEvents(events)
	return &models.Conversation{ID: convID, Source: p.Source(), Events: events, Metadata: profile.metadata()}
}

// characterRole distinguishes the human from the character. The export
// variants mark this several ways, tried in order: an is_human flag, a
// src field, or a sender name. Any sender that is not recognizably the
// user reads as the character, which is also the default for unmarked
// messages (swipes and candidates only exist on character turns).
func characterRole(msg map[string]any) models.Role {
	if isHuman, ok := msg["is_human"].(bool); ok {
		if isHuman {
			return models.RoleUser
		}
		return models.RoleAssistant
	}

	if src, ok := msg["src"]; ok {
		switch strings.ToLower(fmt.Sprintf("%v", src)) {
		case "human", "user":
			return models.RoleUser
		}
		return models.RoleAssistant
	}

	if name := firstString(msg, []string{"name", "author"}); name != "" {
		switch strings.ToLower(name) {
		case "user", "human", "you":
			return models.RoleUser
		}
		return models.RoleAssistant
	}

	return models.RoleAssistant
}

// characterText extracts message text. A message with swipes (regenerated
// character responses) uses the selected swipe, or the first one when the
// selection index is out of range.
func characterText(msg map[string]any) string {
	if swipes, ok := msg["swipes"].([]any); ok && len(swipes) > 0 {
		selected := 0
		if id, ok := msg["swipe_id"].(float64); ok && int(id) >= 0 && int(id) < len(swipes) {
			selected = int(id)
		}
		if s, ok := swipes[selected].(string); ok {
			return trimmed(s)
		}
	}
	return trimmed(firstString(msg, []string{"text", "content", "message"}))
}

func messageMetadata(msg map[string]any, characterName string) map[string]string {
	metadata := map[string]string{"character_name": characterName}
	if swipes, ok := msg["swipes"].([]any); ok {
		metadata["swipe_count"] = strconv.Itoa(len(swipes))
		selected := 0
		if id, ok := msg["swipe_id"].(float64); ok {
			selected = int(id)
		}
		metadata["selected_swipe"] = strconv.Itoa(selected)
	}
	if candidate, ok := msg["candidate_id"]; ok {
		metadata["candidate_id"] = fmt.Sprintf("%v", candidate)
	}
	return metadata
}
