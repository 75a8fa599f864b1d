package parsers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/entrainlab/entrain/internal/models"
)

// Field name variants accepted by the generic parser.
var (
	roleKeys    = []string{"role", "sender", "author", "from"}
	contentKeys = []string{"content", "text", "message", "msg", "body"}
	timeKeys    = []string{"timestamp", "time", "date", "created_at"}
	convKeys    = []string{"conversation_id", "conv_id", "chat_id"}
	idKeys      = []string{"id", "message_id"}
)

// Keys consumed by the fields above; everything else lands in metadata.
var knownKeys = func() map[string]bool {
	m := make(map[string]bool)
	for _, group := range [][]string{roleKeys, contentKeys, timeKeys, convKeys, idKeys, {"audio"}} {
		for _, k := range group {
			m[k] = true
		}
	}
	return m
}()

// Fields marking a platform-specific export the generic parser must not
// claim ahead of a dedicated one.
var platformMarkers = []string{"mapping", "character", "character_name", "histories", "swipes"}

// GenericParser reads user-structured exports: a JSON array of message
// objects, or a CSV with role and content columns. Messages may carry an
// "audio" object with pre-extracted acoustic features for voice turns.
type GenericParser struct{}

func NewGenericParser() *GenericParser { return &GenericParser{} }

func (p *GenericParser) Source() string { return "generic" }

// CanParse is intentionally permissive; the registry runs this parser
// last as the fallback.
func (p *GenericParser) CanParse(path string) bool {
	switch filepath.Ext(path) {
	case ".csv":
		return p.csvHasRequiredColumns(path)
	case ".json":
		return p.jsonLooksGeneric(path)
	}
	return false
}

func (p *GenericParser) csvHasRequiredColumns(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return false
	}
	hasRole, hasContent := false, false
	for _, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, k := range roleKeys {
			if h == k {
				hasRole = true
			}
		}
		for _, k := range contentKeys {
			if h == k {
				hasContent = true
			}
		}
	}
	return hasRole && hasContent
}

func (p *GenericParser) jsonLooksGeneric(path string) bool {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var data []map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return false
	}
	if len(data) == 0 {
		return true
	}
	first := data[0]
	for _, marker := range platformMarkers {
		if _, ok := first[marker]; ok {
			return false
		}
	}
	return firstString(first, roleKeys) != "" && hasAnyKey(first, contentKeys)
}

func (p *GenericParser) Parse(path string) (*models.Corpus, error) {
	switch filepath.Ext(path) {
	case ".csv":
		return p.parseCSV(path)
	case ".json":
		return p.parseJSON(path)
	}
	return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "expected a .json or .csv file"}
}

func (p *GenericParser) parseJSON(path string) (*models.Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	var messages []map[string]any
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "expected a JSON array of message objects"}
	}
	return p.groupMessages(messages), nil
}

func (p *GenericParser) parseCSV(path string) (*models.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &InvalidExportError{Path: path, Source: p.Source(), Reason: "missing CSV header"}
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var messages []map[string]any
	skipped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		row := make(map[string]any, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		messages = append(messages, row)
	}
	warnSkipped(p.Source(), skipped, "rows")
	return p.groupMessages(messages), nil
}

// groupMessages splits a flat message list into conversations by their
// conversation id, preserving first-appearance order.
func (p *GenericParser) groupMessages(messages []map[string]any) *models.Corpus {
	grouped := make(map[string][]map[string]any)
	var order []string

	for _, msg := range messages {
		convID := firstString(msg, convKeys)
		if convID == "" {
			convID = "conversation_0"
		}
		if _, ok := grouped[convID]; !ok {
			order = append(order, convID)
		}
		grouped[convID] = append(grouped[convID], msg)
	}

	var conversations []*models.Conversation
	skipped := 0
	for _, convID := range order {
		events := p.parseEvents(grouped[convID], convID, &skipped)
		if len(events) == 0 {
			continue
		}
		conversations = append(conversations, &models.Conversation{
			ID:     convID,
			Source: p.Source(),
			Events: events,
		})
	}
	warnSkipped(p.Source(), skipped, "messages")
	return models.NewCorpus(conversations, "")
}

func (p *GenericParser) parseEvents(messages []map[string]any, convID string, skipped *int) []models.InteractionEvent {
	var events []models.InteractionEvent
	for _, msg := range messages {
		role, ok := normalizeRole(firstString(msg, roleKeys))
		if !ok {
			*skipped++
			continue
		}
		text := strings.TrimSpace(firstString(msg, contentKeys))
		audio := decodeAudio(msg["audio"])
		if text == "" && audio == nil {
			*skipped++
			continue
		}

		metadata := make(map[string]string)
		for k, v := range msg {
			if !knownKeys[k] && v != nil {
				metadata[k] = fmt.Sprintf("%v", v)
			}
		}
		if len(metadata) == 0 {
			metadata = nil
		}

		events = append(events, models.InteractionEvent{
			ID:             eventID(firstString(msg, idKeys)),
			ConversationID: convID,
			Timestamp:      parseTimestamp(firstValue(msg, timeKeys)),
			Role:           role,
			Text:           text,
			Audio:          audio,
			Metadata:       metadata,
		})
	}
	sortEvents(events)
	return events
}

// decodeAudio converts an inline audio-features object. Anything that
// does not decode cleanly reads as no audio.
func decodeAudio(raw any) *models.AudioFeatures {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	buf, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	var features models.AudioFeatures
	if err := json.Unmarshal(buf, &features); err != nil {
		return nil
	}
	return &features
}

func firstString(m map[string]any, keys []string) string {
	if v := firstValue(m, keys); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func firstValue(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func hasAnyKey(m map[string]any, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}
