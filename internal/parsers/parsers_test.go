package parsers

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/entrainlab/entrain/internal/models"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestGenericJSONGroupsByConversation(t *testing.T) {
	path := writeFixture(t, "export.json", `[
		{"role": "user", "content": "Hello!", "timestamp": "2025-01-01 10:00:00", "conversation_id": "a"},
		{"role": "assistant", "content": "Hi there!", "timestamp": "2025-01-01 10:00:05", "conversation_id": "a"},
		{"role": "human", "content": "Different chat.", "timestamp": "2025-01-02 09:00:00", "conversation_id": "b", "topic": "plans"}
	]`)

	corpus, err := NewGenericParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(corpus.Conversations))
	}

	a := corpus.Conversations[0]
	if a.ID != "a" || len(a.Events) != 2 {
		t.Fatalf("conversation a = %s with %d events, want a with 2", a.ID, len(a.Events))
	}
	if a.Events[0].Role != models.RoleUser || a.Events[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s, want user, assistant", a.Events[0].Role, a.Events[1].Role)
	}
	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	if !a.Events[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", a.Events[0].Timestamp, want)
	}

	b := corpus.Conversations[1]
	if b.Events[0].Role != models.RoleUser {
		t.Errorf("\"human\" role not normalized to user: %s", b.Events[0].Role)
	}
	if b.Events[0].Metadata["topic"] != "plans" {
		t.Errorf("extra field not kept as metadata: %v", b.Events[0].Metadata)
	}
}

func TestGenericJSONSkipsMalformedMessages(t *testing.T) {
	path := writeFixture(t, "export.json", `[
		{"role": "user", "content": "kept"},
		{"role": "narrator", "content": "unknown role"},
		{"role": "user", "content": "   "},
		{"role": "assistant", "content": "also kept"}
	]`)

	corpus, err := NewGenericParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(corpus.Conversations))
	}
	if n := len(corpus.Conversations[0].Events); n != 2 {
		t.Errorf("got %d events, want 2 after skipping malformed turns", n)
	}
	for _, e := range corpus.Conversations[0].Events {
		if e.ID == "" {
			t.Error("event without export id should get a generated one")
		}
	}
}

func TestGenericJSONDecodesAudioFeatures(t *testing.T) {
	path := writeFixture(t, "voice.json", `[
		{"role": "user", "content": "", "audio": {"pitchMean": 210.5, "speechRate": 4.2}},
		{"role": "assistant", "content": "Spoken reply.", "audio": {"pitchMean": 180.0}}
	]`)

	corpus, err := NewGenericParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	events := corpus.Conversations[0].Events
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].HasAudio() || events[0].Audio.PitchMean != 210.5 {
		t.Errorf("audio features not decoded: %+v", events[0].Audio)
	}
	if !events[1].HasText() || !events[1].HasAudio() {
		t.Error("turn with both text and audio should keep both")
	}
}

func TestGenericCSV(t *testing.T) {
	path := writeFixture(t, "export.csv",
		"timestamp,role,content,conversation_id\n"+
			"2025-01-01 10:00:00,user,Hello!,conv1\n"+
			"2025-01-01 10:00:05,assistant,Hi there!,conv1\n")

	p := NewGenericParser()
	if !p.CanParse(path) {
		t.Fatal("CanParse rejected a valid CSV")
	}
	corpus, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 1 || len(corpus.Conversations[0].Events) != 2 {
		t.Fatalf("unexpected corpus shape: %+v", corpus.Conversations)
	}
	if corpus.Conversations[0].Events[0].Text != "Hello!" {
		t.Errorf("content = %q, want Hello!", corpus.Conversations[0].Events[0].Text)
	}
}

const chatgptFixture = `[
  {
    "id": "conv-1",
    "title": "Trip planning",
    "mapping": {
      "n1": {"message": {"id": "m1", "author": {"role": "system"}, "create_time": 1735725600, "content": {"parts": ["system prompt"]}}},
      "n2": {"message": {"id": "m2", "author": {"role": "user"}, "create_time": 1735725660, "content": {"parts": ["Should I go in June?"]}}},
      "n3": {"message": {"id": "m3", "author": {"role": "assistant"}, "create_time": 1735725720, "content": {"parts": ["June is a good time."]}, "metadata": {"model_slug": "gpt-x"}}},
      "n4": {"message": {"id": "m4", "author": {"role": "user"}, "create_time": 1735725780, "content": {"parts": []}}}
    }
  }
]`

func TestChatGPTParseMappingTree(t *testing.T) {
	path := writeFixture(t, "conversations.json", chatgptFixture)

	p := NewChatGPTParser()
	if !p.CanParse(path) {
		t.Fatal("CanParse rejected conversations.json")
	}
	corpus, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(corpus.Conversations))
	}
	conv := corpus.Conversations[0]
	if conv.ID != "conv-1" || conv.Metadata["title"] != "Trip planning" {
		t.Errorf("conversation = %s %v", conv.ID, conv.Metadata)
	}
	// System turn and empty-parts turn drop out; two analyzable turns stay.
	if len(conv.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(conv.Events))
	}
	if conv.Events[0].Role != models.RoleUser || conv.Events[1].Role != models.RoleAssistant {
		t.Errorf("roles out of order: %s, %s", conv.Events[0].Role, conv.Events[1].Role)
	}
	if conv.Events[1].Metadata["model"] != "gpt-x" {
		t.Errorf("model metadata = %v", conv.Events[1].Metadata)
	}
	if conv.Events[0].Timestamp.IsZero() {
		t.Error("unix timestamp not decoded")
	}
}

const claudeFixture = `{
  "conversations": [
    {
      "uuid": "abc-123",
      "name": "Career advice",
      "chat_messages": [
        {"uuid": "u1", "sender": "human", "text": "Should I switch teams?", "created_at": "2025-02-01T08:30:00Z"},
        {"uuid": "a1", "sender": "assistant", "text": "What draws you to the other team?", "created_at": "2025-02-01T08:31:00Z"}
      ]
    }
  ]
}`

func TestClaudeParseConversationsContainer(t *testing.T) {
	path := writeFixture(t, "export.json", claudeFixture)

	p := NewClaudeParser()
	if !p.CanParse(path) {
		t.Fatal("CanParse rejected a claude export")
	}
	corpus, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(corpus.Conversations))
	}
	conv := corpus.Conversations[0]
	if conv.ID != "abc-123" || conv.Metadata["title"] != "Career advice" {
		t.Errorf("conversation = %s %v", conv.ID, conv.Metadata)
	}
	if len(conv.Events) != 2 || conv.Events[0].Role != models.RoleUser {
		t.Fatalf("unexpected events: %+v", conv.Events)
	}
}

func TestClaudeParseJSONL(t *testing.T) {
	path := writeFixture(t, "sessions.jsonl",
		`{"uuid": "s1", "messages": [{"role": "human", "content": "First session."}, {"role": "assistant", "content": "Noted."}]}`+"\n"+
			`not json at all`+"\n"+
			`{"uuid": "s2", "messages": [{"role": "human", "content": [{"type": "text", "text": "Second session."}]}]}`+"\n")

	corpus, err := NewClaudeParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 2 {
		t.Fatalf("got %d conversations, want 2 (bad line skipped)", len(corpus.Conversations))
	}
	if corpus.Conversations[1].Events[0].Text != "Second session." {
		t.Errorf("structured content parts not flattened: %q", corpus.Conversations[1].Events[0].Text)
	}
}

// zipMember keeps archive fixtures in a deterministic order.
type zipMember struct {
	name    string
	content string
}

func writeZipFixture(t *testing.T, name string, members []zipMember) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive fixture: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			t.Fatalf("adding %s: %v", m.name, err)
		}
		if _, err := w.Write([]byte(m.content)); err != nil {
			t.Fatalf("writing %s: %v", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing fixture file: %v", err)
	}
	return path
}

func TestClaudeParseZipMergesMembers(t *testing.T) {
	path := writeZipFixture(t, "export.zip", []zipMember{
		{"claude/chats.json", claudeFixture},
		{"claude/sessions.jsonl",
			`{"uuid": "s1", "messages": [{"role": "human", "content": "First session."}, {"role": "assistant", "content": "Noted."}]}` + "\n" +
				`{"uuid": "s2", "messages": [{"role": "human", "content": "Second session."}]}` + "\n"},
		{"claude/readme.txt", "not parsed"},
	})

	p := NewClaudeParser()
	if !p.CanParse(path) {
		t.Fatal("CanParse rejected a claude archive")
	}
	corpus, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 3 {
		t.Fatalf("got %d conversations, want 3 merged across members", len(corpus.Conversations))
	}
	ids := make(map[string]bool)
	for _, conv := range corpus.Conversations {
		ids[conv.ID] = true
	}
	for _, want := range []string{"abc-123", "s1", "s2"} {
		if !ids[want] {
			t.Errorf("conversation %s missing from merged corpus", want)
		}
	}
}

func TestClaudeCanParseRejectsForeignZip(t *testing.T) {
	path := writeZipFixture(t, "other.zip", []zipMember{
		{"photos/album.json", `{"images": []}`},
	})
	if NewClaudeParser().CanParse(path) {
		t.Error("CanParse claimed an archive with no claude markers")
	}
}

const characteraiFixture = `{
  "character_name": "Mentor",
  "description": "A supportive mentor.",
  "greeting": "Hello, friend.",
  "histories": [
    {
      "id": "h1",
      "messages": [
        {"is_human": true, "text": "I feel stuck lately.", "timestamp": 1738400000},
        {"is_human": false, "swipes": ["You are doing fine.", "Tell me more about that."], "swipe_id": 1, "timestamp": 1738400060},
        {"src": "human", "text": "Work mostly.", "timestamp": 1738400120},
        {"name": "Mentor", "text": "What would unstuck look like?", "timestamp": 1738400180}
      ]
    }
  ]
}`

func TestCharacterAIParseHistories(t *testing.T) {
	path := writeFixture(t, "character.json", characteraiFixture)

	p := NewCharacterAIParser()
	if !p.CanParse(path) {
		t.Fatal("CanParse rejected a character export")
	}
	corpus, err := p.Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 1 {
		t.Fatalf("got %d conversations, want 1", len(corpus.Conversations))
	}
	conv := corpus.Conversations[0]
	if conv.ID != "h1" || conv.Source != "characterai" {
		t.Errorf("conversation = %s from %s", conv.ID, conv.Source)
	}
	if conv.Metadata["character_name"] != "Mentor" ||
		conv.Metadata["character_description"] != "A supportive mentor." ||
		conv.Metadata["character_greeting"] != "Hello, friend." {
		t.Errorf("character metadata = %v", conv.Metadata)
	}
	if len(conv.Events) != 4 {
		t.Fatalf("got %d events, want 4", len(conv.Events))
	}
	wantRoles := []models.Role{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant}
	for i, want := range wantRoles {
		if conv.Events[i].Role != want {
			t.Errorf("event %d role = %s, want %s", i, conv.Events[i].Role, want)
		}
	}
	swiped := conv.Events[1]
	if swiped.Text != "Tell me more about that." {
		t.Errorf("selected swipe not used: %q", swiped.Text)
	}
	if swiped.Metadata["swipe_count"] != "2" || swiped.Metadata["selected_swipe"] != "1" {
		t.Errorf("swipe metadata = %v", swiped.Metadata)
	}
	if conv.Events[0].Timestamp.IsZero() {
		t.Error("unix timestamp not decoded")
	}
}

func TestCharacterAIParseChatArray(t *testing.T) {
	path := writeFixture(t, "chats.json", `[
		{"character_name": "Muse", "messages": [
			{"src": "user", "content": "Any ideas for the opening?"},
			{"src": "character", "content": "Start in the middle of the storm."}
		]},
		{"character_name": "Coach", "messages": [
			{"is_human": true, "text": "Plan for the week?"},
			{"candidate_id": "c-9", "text": "Three short runs, one long."}
		]}
	]`)

	corpus, err := NewCharacterAIParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(corpus.Conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(corpus.Conversations))
	}
	muse := corpus.Conversations[0]
	if muse.Metadata["character_name"] != "Muse" {
		t.Errorf("character metadata = %v", muse.Metadata)
	}
	if muse.Events[0].Role != models.RoleUser || muse.Events[1].Role != models.RoleAssistant {
		t.Errorf("src roles = %s, %s", muse.Events[0].Role, muse.Events[1].Role)
	}
	coach := corpus.Conversations[1]
	if coach.Events[1].Role != models.RoleAssistant {
		t.Errorf("candidate message role = %s, want assistant", coach.Events[1].Role)
	}
	if coach.Events[1].Metadata["candidate_id"] != "c-9" {
		t.Errorf("candidate metadata = %v", coach.Events[1].Metadata)
	}
}

func TestRegistryDetection(t *testing.T) {
	reg := NewRegistry()

	chatgpt := writeFixture(t, "conversations.json", chatgptFixture)
	if p, ok := reg.Find(chatgpt); !ok || p.Source() != "chatgpt" {
		t.Errorf("conversations.json detected as %v", p)
	}

	claude := writeFixture(t, "claude.json", claudeFixture)
	if p, ok := reg.Find(claude); !ok || p.Source() != "claude" {
		t.Errorf("claude export detected as %v", p)
	}

	character := writeFixture(t, "character.json", characteraiFixture)
	if p, ok := reg.Find(character); !ok || p.Source() != "characterai" {
		t.Errorf("character export detected as %v", p)
	}

	generic := writeFixture(t, "messages.json", `[{"role": "user", "content": "hi"}]`)
	if p, ok := reg.Find(generic); !ok || p.Source() != "generic" {
		t.Errorf("message array detected as %v", p)
	}

	unknown := writeFixture(t, "notes.txt", "plain text")
	_, err := reg.ParseAuto(unknown)
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("ParseAuto error = %v, want *UnsupportedFormatError", err)
	}
}

func TestCorpusDateRangeDerived(t *testing.T) {
	path := writeFixture(t, "export.json", `[
		{"role": "user", "content": "early", "timestamp": "2025-01-01 10:00:00"},
		{"role": "assistant", "content": "late", "timestamp": "2025-03-01 10:00:00"}
	]`)
	corpus, err := NewGenericParser().Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if corpus.From.IsZero() || corpus.To.IsZero() || !corpus.To.After(corpus.From) {
		t.Errorf("date range not derived: from %v to %v", corpus.From, corpus.To)
	}
}
