/*
Package models defines the value objects shared by every analysis layer:
interaction events, conversations, corpora, and the report structures the
dimension and cross-dimensional engines produce.

All values are created once by the parser or analyzer layer and never
mutated afterwards. Analyzers treat them as read-only input.
*/
package models

import "time"

// Role identifies who produced a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Modality describes what kind of content an analyzer needs.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
	ModalityBoth  Modality = "both"
)

// AudioFeatures holds pre-extracted acoustic features for one voice turn.
// Extraction itself (openSMILE, librosa or similar) happens upstream; the
// analysis core only ever sees these numbers.
type AudioFeatures struct {
	PitchMean     float64 `json:"pitchMean"`  // F0 mean in Hz
	PitchStd      float64 `json:"pitchStd"`
	PitchRange    float64 `json:"pitchRange"` // F0 max - min
	IntensityMean float64 `json:"intensityMean"` // mean intensity in dB
	IntensityStd  float64 `json:"intensityStd"`
	SpeechRate    float64 `json:"speechRate"` // syllables per second (estimated)
	PauseRatio    float64 `json:"pauseRatio"` // proportion of turn spent in silence
	// Spectral carries named spectral descriptors (centroid, rolloff, MFCC
	// summaries) keyed by feature name.
	Spectral map[string]float64 `json:"spectral,omitempty"`
}

// InteractionEvent is a single turn in a human-AI conversation, the
// fundamental unit of analysis. Text and voice turns normalize to the same
// shape; a turn may carry text, audio features, or both.
type InteractionEvent struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversationId"`
	Timestamp      time.Time         `json:"timestamp"`
	Role           Role              `json:"role"`
	Text           string            `json:"text,omitempty"`
	Audio          *AudioFeatures    `json:"audio,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// HasText reports whether the turn carries analyzable text.
func (e InteractionEvent) HasText() bool { return e.Text != "" }

// HasAudio reports whether the turn carries extracted acoustic features.
func (e InteractionEvent) HasAudio() bool { return e.Audio != nil }

// Conversation is an ordered sequence of interaction events sharing one
// conversation id.
type Conversation struct {
	ID       string             `json:"id"`
	Source   string             `json:"source"` // platform: "chatgpt", "claude", "generic", ...
	Events   []InteractionEvent `json:"events"`
	Metadata map[string]string  `json:"metadata,omitempty"`
}

// UserEvents returns the user-authored turns in order. The returned slice
// is a fresh view; the conversation is not modified.
func (c *Conversation) UserEvents() []InteractionEvent {
	return c.filterByRole(RoleUser)
}

// AssistantEvents returns the assistant-authored turns in order.
func (c *Conversation) AssistantEvents() []InteractionEvent {
	return c.filterByRole(RoleAssistant)
}

func (c *Conversation) filterByRole(role Role) []InteractionEvent {
	out := make([]InteractionEvent, 0, len(c.Events))
	for _, e := range c.Events {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

// Duration returns the elapsed time between the first and last event.
// ok is false when the conversation has fewer than two events.
func (c *Conversation) Duration() (time.Duration, bool) {
	if len(c.Events) < 2 {
		return 0, false
	}
	return c.Events[len(c.Events)-1].Timestamp.Sub(c.Events[0].Timestamp), true
}

// StartTime returns the timestamp of the first event.
func (c *Conversation) StartTime() (time.Time, bool) {
	if len(c.Events) == 0 {
		return time.Time{}, false
	}
	return c.Events[0].Timestamp, true
}

// HasText reports whether any turn in the conversation carries text.
func (c *Conversation) HasText() bool {
	for _, e := range c.Events {
		if e.HasText() {
			return true
		}
	}
	return false
}

// HasAudio reports whether any turn carries acoustic features.
func (c *Conversation) HasAudio() bool {
	for _, e := range c.Events {
		if e.HasAudio() {
			return true
		}
	}
	return false
}

// Corpus is a collection of conversations analyzed together, typically one
// person's history over time. Conversations are expected in chronological
// order; corpus-level trajectory analysis depends on it.
type Corpus struct {
	Conversations []*Conversation `json:"conversations"`
	UserID        string          `json:"userId,omitempty"`
	From          time.Time       `json:"from,omitzero"`
	To            time.Time       `json:"to,omitzero"`
}

// NewCorpus builds a corpus and derives its date range from the event
// timestamps it contains.
func NewCorpus(conversations []*Conversation, userID string) *Corpus {
	c := &Corpus{Conversations: conversations, UserID: userID}
	for _, conv := range conversations {
		for _, e := range conv.Events {
			if e.Timestamp.IsZero() {
				continue
			}
			if c.From.IsZero() || e.Timestamp.Before(c.From) {
				c.From = e.Timestamp
			}
			if c.To.IsZero() || e.Timestamp.After(c.To) {
				c.To = e.Timestamp
			}
		}
	}
	return c
}
