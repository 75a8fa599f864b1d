package dimensions

import (
	"testing"
	"time"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/patterns"
	"github.com/entrainlab/entrain/internal/textfeat"
)

func newAE() *AEAnalyzer {
	return NewAEAnalyzer(textfeat.New(patterns.Default()))
}

func TestAEConversationIndicators(t *testing.T) {
	conv := conversation("c1",
		textEvent(models.RoleUser, "Should I take the job offer?", time.Time{}),
		textEvent(models.RoleAssistant, "I would recommend taking it; the role fits you.", time.Time{}),
		textEvent(models.RoleUser, "But what about the commute? What do you think?", time.Time{}),
		textEvent(models.RoleUser, "Can you explain how equity vesting works?", time.Time{}),
	)

	report, err := newAE().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}

	// One decision request against one information request.
	wantValue(t, report, "decision_delegation_ratio", 0.5)
	// The turn right after the recommendation pushes back.
	wantValue(t, report, "critical_engagement_rate", 1)
	// "what do you think" is the only offloading cue in three user turns.
	wantValue(t, report, "cognitive_offloading_trajectory", 1.0/3.0)
}

func TestAECriticalEngagementChecksOnlyNextUserTurn(t *testing.T) {
	conv := conversation("c1",
		textEvent(models.RoleUser, "I need a laptop for travel.", time.Time{}),
		textEvent(models.RoleAssistant, "I would recommend the lighter model.", time.Time{}),
		textEvent(models.RoleUser, "Sounds good, thanks.", time.Time{}),
		// Pushback two turns later no longer counts against the
		// recommendation above.
		textEvent(models.RoleUser, "But what about battery life?", time.Time{}),
	)

	report, err := newAE().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	wantValue(t, report, "critical_engagement_rate", 0)
}

func TestAENoDecisionQuestionsIsInsufficient(t *testing.T) {
	conv := conversation("c1",
		textEvent(models.RoleUser, "The meeting went fine.", time.Time{}),
		textEvent(models.RoleAssistant, "Glad to hear it.", time.Time{}),
	)
	report, err := newAE().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	wantInsufficient(t, report, "decision_delegation_ratio")
	wantInsufficient(t, report, "critical_engagement_rate")
}

func TestAECorpusOffloadingTrend(t *testing.T) {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	convs := []*models.Conversation{
		conversation("week0",
			textEvent(models.RoleUser, "The weather is nice today.", base),
			textEvent(models.RoleAssistant, "It is.", base.Add(time.Minute)),
		),
		conversation("week1",
			textEvent(models.RoleUser, "What do you think about this plan?", base.AddDate(0, 0, 7)),
			textEvent(models.RoleUser, "The weather is nice today.", base.AddDate(0, 0, 7).Add(time.Minute)),
			textEvent(models.RoleAssistant, "The plan looks workable.", base.AddDate(0, 0, 7).Add(2*time.Minute)),
		),
		conversation("week2",
			textEvent(models.RoleUser, "Help me decide what to cook tonight.", base.AddDate(0, 0, 14)),
			textEvent(models.RoleAssistant, "Pasta is quick.", base.AddDate(0, 0, 14).Add(time.Minute)),
		),
	}

	report, err := newAE().AnalyzeCorpus(models.NewCorpus(convs, "u1"))
	if err != nil {
		t.Fatalf("AnalyzeCorpus: %v", err)
	}

	// Offloading rates 0, 0.5, 1.0 at even weekly spacing fit a slope of
	// 0.5 per interval.
	wantValue(t, report, "cognitive_offloading_trajectory", 0.5)
	if report.Trajectory == nil {
		t.Fatal("corpus report has no trajectory")
	}
	if report.Trajectory.Trend != models.TrendIncreasing {
		t.Errorf("offloading trend = %q, want %q", report.Trajectory.Trend, models.TrendIncreasing)
	}
}

func TestAECorpusTooFewConversationsForTrend(t *testing.T) {
	base := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	convs := []*models.Conversation{
		conversation("one",
			textEvent(models.RoleUser, "What do you think about this plan?", base),
			textEvent(models.RoleAssistant, "It looks workable.", base.Add(time.Minute)),
		),
		conversation("two",
			textEvent(models.RoleUser, "The weather is nice today.", base.AddDate(0, 0, 1)),
			textEvent(models.RoleAssistant, "It is.", base.AddDate(0, 0, 1).Add(time.Minute)),
		),
	}

	report, err := newAE().AnalyzeCorpus(models.NewCorpus(convs, "u1"))
	if err != nil {
		t.Fatalf("AnalyzeCorpus: %v", err)
	}
	wantInsufficient(t, report, "cognitive_offloading_trajectory")
}
