package parsers

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

const chatgptConversationsFile = "conversations.json"

// ChatGPTParser reads ChatGPT exports: either the export ZIP or a bare
// conversations.json. Messages live in a tree keyed by node id; the
// parser flattens it chronologically and keeps only user and assistant
// turns with text.
type ChatGPTParser struct{}

func NewChatGPTParser() *ChatGPTParser { return &ChatGPTParser{} }

func (p *ChatGPTParser) Source() string { return "chatgpt" }

func (p *ChatGPTParser) CanParse(path string) bool {
	if filepath.Ext(path) == ".zip" {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return false
		}
		defer zr.Close()
		for _, f := range zr.File {
			if filepath.Base(f.Name) == chatgptConversationsFile {
				return true
			}
		}
		return false
	}
	return filepath.Base(path) == chatgptConversationsFile
}

type chatgptConversation struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	CreateTime float64                `json:"create_time"`
	UpdateTime float64                `json:"update_time"`
	Mapping    map[string]chatgptNode `json:"mapping"`
}

type chatgptNode struct {
	Message *chatgptMessage `json:"message"`
}

type chatgptMessage struct {
	ID     string `json:"id"`
	Author struct {
		Role string `json:"role"`
		Name string `json:"name"`
	} `json:"author"`
	CreateTime *float64 `json:"create_time"`
	Content    struct {
		Parts []any `json:"parts"`
	} `json:"content"`
	Metadata struct {
		ModelSlug string `json:"model_slug"`
	} `json:"metadata"`
}

func (p *ChatGPTParser) Parse(path string) (*models.Corpus, error) {
	raw, err := p.readConversations(path)
	if err != nil {
		return nil, err
	}

	var export []chatgptConversation
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "conversations.json is not a conversation array"}
	}

	var conversations []*models.Conversation
	skipped := 0
	for _, convData := range export {
		conv := p.parseConversation(convData, &skipped)
		if conv != nil && len(conv.Events) > 0 {
			conversations = append(conversations, conv)
		}
	}
	warnSkipped(p.Source(), skipped, "messages")
	return models.NewCorpus(conversations, ""), nil
}

func (p *ChatGPTParser) readConversations(path string) ([]byte, error) {
	if filepath.Ext(path) != ".zip" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading export: %w", err)
		}
		return raw, nil
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening export archive: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if filepath.Base(f.Name) != chatgptConversationsFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in archive: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "archive contains no conversations.json"}
}

func (p *ChatGPTParser) parseConversation(data chatgptConversation, skipped *int) *models.Conversation {
	convID := data.ID
	if convID == "" {
		convID = eventID("")
	}

	// Flatten the message tree into creation order.
	var nodes []*chatgptMessage
	for _, node := range data.Mapping {
		if node.Message != nil {
			nodes = append(nodes, node.Message)
		}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return messageTime(nodes[i]) < messageTime(nodes[j])
	})

	var events []models.InteractionEvent
	for _, msg := range nodes {
		role, ok := normalizeRole(msg.Author.Role)
		if !ok {
			continue // system and tool turns are not analyzed
		}
		text := joinParts(msg.Content.Parts)
		if text == "" {
			*skipped++
			continue
		}

		var metadata map[string]string
		if msg.Metadata.ModelSlug != "" {
			metadata = map[string]string{"model": msg.Metadata.ModelSlug}
		}

		var ts any
		if msg.CreateTime != nil {
			ts = *msg.CreateTime
		}
		events = append(events, models.InteractionEvent{
			ID:             eventID(msg.ID),
			ConversationID: convID,
			Timestamp:      parseTimestamp(ts),
			Role:           role,
			Text:           text,
			Metadata:       metadata,
		})
	}
	sortEvents(events)

	metadata := map[string]string{}
	if data.Title != "" {
		metadata["title"] = data.Title
	}
	if len(metadata) == 0 {
		metadata = nil
	}
	return &models.Conversation{ID: convID, Source: p.Source(), Events: events, Metadata: metadata}
}

func messageTime(m *chatgptMessage) float64 {
	if m.CreateTime == nil {
		return 0
	}
	return *m.CreateTime
}

// joinParts flattens message content parts; parts may be plain strings
// or structured objects carrying a text field.
func joinParts(parts []any) string {
	var texts []string
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			if v != "" {
				texts = append(texts, v)
			}
		case map[string]any:
			if s, ok := v["text"].(string); ok && s != "" {
				texts = append(texts, s)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}
