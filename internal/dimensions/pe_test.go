package dimensions

import (
	"errors"
	"testing"
	"time"

	"github.com/entrainlab/entrain/internal/models"
)

func voiceFeatures(pitch float64) *models.AudioFeatures {
	return &models.AudioFeatures{
		PitchMean:     pitch,
		SpeechRate:    4.0,
		IntensityMean: -20.0,
		Spectral:      map[string]float64{"spectral_centroid_mean": 1500},
	}
}

func TestPETextOnlyConversationIsModalityError(t *testing.T) {
	conv := conversation("c1",
		textEvent(models.RoleUser, "Hello.", time.Time{}),
		textEvent(models.RoleAssistant, "Hi.", time.Time{}),
	)
	_, err := NewPEAnalyzer().AnalyzeConversation(conv)
	var modErr *ModalityError
	if !errors.As(err, &modErr) {
		t.Fatalf("AnalyzeConversation error = %v, want *ModalityError", err)
	}
	if modErr.Required != models.ModalityAudio {
		t.Errorf("ModalityError.Required = %q, want %q", modErr.Required, models.ModalityAudio)
	}
}

func TestPETooFewPairsIsInsufficientNotError(t *testing.T) {
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	conv := conversation("c1",
		audioEvent(models.RoleUser, voiceFeatures(200), base),
		audioEvent(models.RoleAssistant, voiceFeatures(180), base.Add(time.Minute)),
	)

	report, err := NewPEAnalyzer().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	for _, name := range []string{
		"pitch_convergence", "speech_rate_convergence", "intensity_convergence",
		"spectral_convergence", "overall_entrainment", "convergence_trend",
	} {
		wantInsufficient(t, report, name)
	}
}

func TestPEIdenticalVoicesFullConvergence(t *testing.T) {
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	var events []models.InteractionEvent
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * 5 * time.Minute)
		events = append(events,
			audioEvent(models.RoleUser, voiceFeatures(180), at),
			audioEvent(models.RoleAssistant, voiceFeatures(180), at.Add(time.Minute)),
		)
	}
	conv := conversation("c1", events...)

	report, err := NewPEAnalyzer().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}

	wantValue(t, report, "pitch_convergence", 1)
	wantValue(t, report, "speech_rate_convergence", 1)
	wantValue(t, report, "intensity_convergence", 1)
	wantValue(t, report, "spectral_convergence", 1)
	wantValue(t, report, "overall_entrainment", 1)
	// A flat series fits slope zero.
	wantValue(t, report, "convergence_trend", 0)
	if report.Trajectory == nil || report.Trajectory.Trend != models.TrendStable {
		t.Errorf("trajectory of identical convergence scores should be stable, got %+v", report.Trajectory)
	}
}

func TestPEPairingSkipsTextAssistantReplies(t *testing.T) {
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	conv := conversation("c1",
		audioEvent(models.RoleUser, voiceFeatures(200), base),
		// A text-only reply ends the exchange without a voice pair.
		textEvent(models.RoleAssistant, "Here is a written answer.", base.Add(time.Minute)),
		audioEvent(models.RoleUser, voiceFeatures(200), base.Add(2*time.Minute)),
		audioEvent(models.RoleAssistant, voiceFeatures(200), base.Add(3*time.Minute)),
	)

	report, err := NewPEAnalyzer().AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	// Only one voice pair survives, below the scoring threshold.
	wantInsufficient(t, report, "overall_entrainment")
}

func TestPECorpusPoolsPairsAcrossConversations(t *testing.T) {
	base := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	mk := func(id string, at time.Time) *models.Conversation {
		return conversation(id,
			audioEvent(models.RoleUser, voiceFeatures(190), at),
			audioEvent(models.RoleAssistant, voiceFeatures(190), at.Add(time.Minute)),
		)
	}
	corpus := models.NewCorpus([]*models.Conversation{
		mk("a", base),
		mk("b", base.AddDate(0, 0, 1)),
	}, "u1")

	// Each conversation alone is below the pair threshold; together they
	// clear it.
	report, err := NewPEAnalyzer().AnalyzeCorpus(corpus)
	if err != nil {
		t.Fatalf("AnalyzeCorpus: %v", err)
	}
	wantValue(t, report, "overall_entrainment", 1)
}
