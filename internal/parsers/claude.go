package parsers

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// ClaudeParser reads claude.ai export variants: a conversations array,
// a single conversation object with a messages list, a bare message
// array, JSONL with one conversation per line, or a ZIP archive
// containing any of those.
type ClaudeParser struct{}

func NewClaudeParser() *ClaudeParser { return &ClaudeParser{} }

func (p *ClaudeParser) Source() string { return "claude" }

func (p *ClaudeParser) CanParse(path string) bool {
	switch filepath.Ext(path) {
	case ".jsonl":
		return true
	case ".zip":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return false
		}
		defer zr.Close()
		for _, f := range zr.File {
			name := strings.ToLower(f.Name)
			if strings.Contains(name, "claude") ||
				filepath.Ext(name) == ".jsonl" ||
				filepath.Base(name) == "conversations.json" {
				return true
			}
		}
		return false
	case ".json":
		raw, err := os.ReadFile(path)
		if err != nil {
			return false
		}
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return false
		}
		return looksLikeClaude(data)
	}
	return false
}

// looksLikeClaude checks for the structural markers of a claude.ai
// export: uuid-keyed conversations, chat_messages, or a messages array.
func looksLikeClaude(data any) bool {
	switch v := data.(type) {
	case map[string]any:
		for _, key := range []string{"uuid", "conversation_id", "chat_messages", "conversations", "messages"} {
			if _, ok := v[key]; ok {
				return true
			}
		}
	case []any:
		if len(v) == 0 {
			return false
		}
		first, ok := v[0].(map[string]any)
		if !ok {
			return false
		}
		for _, key := range []string{"uuid", "chat_messages", "messages"} {
			if _, ok := first[key]; ok {
				return true
			}
		}
	}
	return false
}

func (p *ClaudeParser) Parse(path string) (*models.Corpus, error) {
	switch filepath.Ext(path) {
	case ".jsonl":
		return p.parseJSONL(path)
	case ".zip":
		return p.parseZip(path)
	}

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

func (p *ClaudeParser) parseJSONL(path string) (*models.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	defer f.Close()

	skipped := 0
	conversations, err := p.scanJSONL(f, &skipped)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	warnSkipped(p.Source(), skipped, "lines or messages")
	return models.NewCorpus(conversations, ""), nil
}

func (p *ClaudeParser) scanJSONL(r io.Reader, skipped *int) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(text, &data); err != nil {
			*skipped++
			continue
		}
		if conv := p.parseConversationObject(data, fmt.Sprintf("line_%d", line), skipped); conv != nil {
			conversations = append(conversations, conv)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return conversations, nil
}

// parseZip walks the archive and parses every JSON or JSONL member,
// merging their conversations. Unreadable members are skipped and
// counted rather than failing the whole archive.
func (p *ClaudeParser) parseZip(path string) (*models.Corpus, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening export archive: %w", err)
	}
	defer zr.Close()

	var conversations []*models.Conversation
	skipped := 0
	members := 0
	for _, f := range zr.File {
		ext := filepath.Ext(f.Name)
		if ext != ".json" && ext != ".jsonl" {
			continue
		}
		members++
		rc, err := f.Open()
		if err != nil {
			skipped++
			continue
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			skipped++
			continue
		}
		if ext == ".jsonl" {
			convs, err := p.scanJSONL(bytes.NewReader(raw), &skipped)
			if err != nil {
				skipped++
				continue
			}
			conversations = append(conversations, convs...)
			continue
		}
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			skipped++
			continue
		}
		conversations = append(conversations, p.parseAny(data, &skipped)...)
	}
	if members == 0 {
		return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "archive contains no JSON or JSONL members"}
	}
	warnSkipped(p.Source(), skipped, "archive members or messages")
	return models.NewCorpus(conversations, ""), nil
}

// parseAny dispatches on the export shape.
func (p *ClaudeParser) parseAny(data any, skipped *int) []*models.Conversation {
	var conversations []*models.Conversation
	add := func(conv *models.Conversation) {
		if conv != nil {
			conversations = append(conversations, conv)
		}
	}

	switch v := data.(type) {
	case []any:
		if len(v) == 0 {
			return nil
		}
		if first, ok := v[0].(map[string]any); ok && hasMessages(first) {
			// Array of conversation objects.
			for i, item := range v {
				obj, ok := item.(map[string]any)
				if !ok {
					*skipped++
					continue
				}
				add(p.parseConversationObject(obj, fmt.Sprintf("conv_%d", i), skipped))
			}
			return conversations
		}
		// Bare message array: one conversation.
		add(p.buildConversation(v, eventID(""), nil, skipped))

	case map[string]any:
		if container, ok := v["conversations"].([]any); ok {
			for i, item := range container {
				obj, ok := item.(map[string]any)
				if !ok {
					*skipped++
					continue
				}
				add(p.parseConversationObject(obj, fmt.Sprintf("conv_%d", i), skipped))
			}
			return conversations
		}
		add(p.parseConversationObject(v, eventID(""), skipped))
	}
	return conversations
}

func hasMessages(obj map[string]any) bool {
	return hasAnyKey(obj, []string{"messages", "chat_messages", "chat"})
}

func (p *ClaudeParser) parseConversationObject(obj map[string]any, fallbackID string, skipped *int) *models.Conversation {
	convID := firstString(obj, []string{"id", "uuid", "conversation_id"})
	if convID == "" {
		convID = fallbackID
	}

	var metadata map[string]string
	if title := firstString(obj, []string{"title", "name"}); title != "" {
		metadata = map[string]string{"title": title}
	}

	messages, _ := firstValue(obj, []string{"messages", "chat_messages", "chat"}).([]any)
	return p.buildConversation(messages, convID, metadata, skipped)
}

func (p *ClaudeParser) buildConversation(messages []any, convID string, metadata map[string]string, skipped *int) *models.Conversation {
	var events []models.InteractionEvent
	for _, item := range messages {
		msg, ok := item.(map[string]any)
		if !ok {
			*skipped++
			continue
		}
		role, ok := normalizeRole(firstString(msg, []string{"role", "sender", "author"}))
		if !ok {
			continue // system turns are not analyzed
		}
		text := claudeText(msg)
		if text == "" {
			*skipped++
			continue
		}
		events = append(events, models.InteractionEvent{
			ID:             eventID(firstString(msg, []string{"id", "uuid"})),
			ConversationID: convID,
			Timestamp:      parseTimestamp(firstValue(msg, []string{"timestamp", "created_at", "time", "date"})),
			Role:           role,
			Text:           text,
		})
	}
	if len(events) == 0 {
		return nil
	}
	sortEvents(events)
	return &models.Conversation{ID: convID, Source: p.Source(), Events: events, Metadata: metadata}
}

// claudeText extracts message text; content may be a string or an array
// of typed parts.
func claudeText(msg map[string]any) string {
	raw := firstValue(msg, []string{"content", "text", "message"})
	switch v := raw.(type) {
	case string:
		return trimmed(v)
	case []any:
		var parts []string
		for _, part := range v {
			switch pv := part.(type) {
			case string:
				parts = append(parts, pv)
			case map[string]any:
				if s, ok := pv["text"].(string); ok {
					parts = append(parts, s)
				}
			}
		}
		return trimmed(joinNonEmpty(parts))
	}
	return ""
}
