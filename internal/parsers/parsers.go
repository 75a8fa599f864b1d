/*
Package parsers normalizes chat platform exports into the shared data
model. Each parser knows one export family (ChatGPT's conversations.json
tree, Character.AI exports, claude.ai exports, generic message arrays);
the registry auto-detects which one applies. Character.AI runs before
claude.ai because both formats can carry a top-level messages array and
only the character markers disambiguate them.

Parsers are forgiving by design: a malformed turn or conversation is
skipped and counted, never fatal. Only an unreadable or unrecognizable
file is an error.
*/
package parsers

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrainlab/entrain/internal/models"
)

// Parser converts one platform's export format into a Corpus.
type Parser interface {
	// Source returns the lowercase platform identifier ("chatgpt", ...).
	Source() string
	// CanParse reports whether the file looks like this parser's format.
	CanParse(path string) bool
	// Parse reads the export into a corpus, skipping malformed turns.
	Parse(path string) (*models.Corpus, error)
}

// Registry holds parsers in detection order: specific formats first,
// the permissive generic parser last.
type Registry struct {
	parsers []Parser
}

// NewRegistry builds the default registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewChatGPTParser())
	r.Register(NewCharacterAIParser())
	r.Register(NewClaudeParser())
	r.Register(NewGenericParser())
	return r
}

func (r *Registry) Register(p Parser) { r.parsers = append(r.parsers, p) }

// Find returns the first parser claiming the file, or false.
func (r *Registry) Find(path string) (Parser, bool) {
	for _, p := range r.parsers {
		if p.CanParse(path) {
			return p, true
		}
	}
	return nil, false
}

// Sources returns the registered platform identifiers in order.
func (r *Registry) Sources() []string {
	out := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		out[i] = p.Source()
	}
	return out
}

// ParseAuto detects the format and parses the file.
func (r *Registry) ParseAuto(path string) (*models.Corpus, error) {
	p, ok := r.Find(path)
	if !ok {
		return nil, &UnsupportedFormatError{Path: path, Supported: r.Sources()}
	}
	corpus, err := p.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", path, p.Source(), err)
	}
	return corpus, nil
}

// normalizeRole maps the role spellings seen across export formats onto
// the two analyzed roles. ok is false for system, tool and unknown
// roles, which are skipped.
func normalizeRole(raw string) (models.Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "human", "you":
		return models.RoleUser, true
	case "assistant", "ai", "bot", "claude", "model":
		return models.RoleAssistant, true
	default:
		return "", false
	}
}

// timestamp layouts tried in order after RFC 3339.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts unix seconds or milliseconds (JSON numbers) and
// the common string layouts. A missing or unparseable timestamp yields
// the zero time; analyzers treat that as "no timestamp" rather than
// inventing a current-time value that would poison temporal analysis.
func parseTimestamp(raw any) time.Time {
	switch v := raw.(type) {
	case float64:
		if v <= 0 {
			return time.Time{}
		}
		if v > 1e12 { // milliseconds
			v /= 1000
		}
		sec := int64(v)
		nsec := int64((v - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC()
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC()
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

// sortEvents orders events chronologically, keeping input order for
// equal (including zero) timestamps.
func sortEvents(events []models.InteractionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// eventID returns the export's id or mints one.
func eventID(raw string) string {
	if raw != "" {
		return raw
	}
	return uuid.NewString()
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func joinNonEmpty(parts []string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// warnSkipped emits one summary line when a parse skipped anything.
func warnSkipped(source string, skipped int, what string) {
	if skipped > 0 {
		log.Printf("warning: %s parser skipped %d malformed %s", source, skipped, what)
	}
}
