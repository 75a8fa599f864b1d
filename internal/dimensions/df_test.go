package dimensions

import (
	"math"
	"testing"
	"time"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/patterns"
	"github.com/entrainlab/entrain/internal/textfeat"
)

func newDF() *DFAnalyzer {
	return NewDFAnalyzer(textfeat.New(patterns.Default()))
}

func TestDFConversationIndicators(t *testing.T) {
	start := time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC)
	conv := conversation("c1",
		textEvent(models.RoleUser, "I feel lonely and sad tonight.", start),
		textEvent(models.RoleUser, "Help me write a short poem.", start.Add(10*time.Minute)),
	)

	report, err := newDF().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}

	// First message is all emotional, second all functional.
	wantValue(t, report, "emotional_content_ratio", 0.5)
	wantValue(t, report, "session_duration", 10)

	// pronouns 2/12, emotional 0.5, mean length 6 words.
	want := (2.0/12.0)*0.3 + 0.5*0.4 + (6.0/100.0)*0.3
	ind := report.Indicators["self_disclosure_depth"]
	if ind.Insufficient {
		t.Fatalf("self_disclosure_depth marked insufficient: %s", ind.Interpretation)
	}
	if math.Abs(ind.Value-want) > 1e-9 {
		t.Errorf("self_disclosure_depth = %v, want %v", ind.Value, want)
	}
}

func TestDFSingleEventSessionDurationInsufficient(t *testing.T) {
	conv := conversation("c1",
		textEvent(models.RoleUser, "I feel fine.", time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
	)
	report, err := newDF().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	wantInsufficient(t, report, "session_duration")
}

func TestDFCorpusUsagePatterns(t *testing.T) {
	mk := func(id, text string, at time.Time) *models.Conversation {
		return conversation(id, textEvent(models.RoleUser, text, at))
	}
	convs := []*models.Conversation{
		mk("a", "I feel sad.", time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC)),  // evening
		mk("b", "I feel lonely.", time.Date(2025, 1, 2, 2, 0, 0, 0, time.UTC)), // night
		mk("c", "Help me write code.", time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)), // afternoon
		mk("d", "Another long evening here.", time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC)), // evening
	}

	report, err := newDF().AnalyzeCorpus(models.NewCorpus(convs, "u1"))
	if err != nil {
		t.Fatalf("AnalyzeCorpus: %v", err)
	}

	// One night turn plus two evening turns out of four.
	wantValue(t, report, "time_of_day_distribution", 0.75)
	// Two fully emotional messages, two without emotional content.
	wantValue(t, report, "emotional_content_ratio", 0.5)

	// Four conversations span two weekly windows: too few to fit a
	// frequency trend.
	wantInsufficient(t, report, "interaction_frequency_trend")
	// Single-event conversations have no measurable duration.
	wantInsufficient(t, report, "session_duration_trend")

	// Disclosure scores exist for all four conversations, enough to fit.
	ind := report.Indicators["self_disclosure_depth_trajectory"]
	if ind.Insufficient {
		t.Fatalf("self_disclosure_depth_trajectory marked insufficient: %s", ind.Interpretation)
	}
	if report.Trajectory == nil {
		t.Fatal("corpus report has no trajectory")
	}
}

func TestDFCorpusNoTimestampsLonelinessInsufficient(t *testing.T) {
	convs := []*models.Conversation{
		conversation("a", textEvent(models.RoleUser, "I feel fine.", time.Time{})),
	}
	report, err := newDF().AnalyzeCorpus(models.NewCorpus(convs, "u1"))
	if err != nil {
		t.Fatalf("AnalyzeCorpus: %v", err)
	}
	wantInsufficient(t, report, "time_of_day_distribution")
}
