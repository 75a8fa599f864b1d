package dimensions

import (
	"math"
	"testing"
	"time"

	"github.com/entrainlab/entrain/internal/models"
	"github.com/entrainlab/entrain/internal/patterns"
)

func textEvent(role models.Role, text string, at time.Time) models.InteractionEvent {
	return models.InteractionEvent{Role: role, Text: text, Timestamp: at}
}

func audioEvent(role models.Role, audio *models.AudioFeatures, at time.Time) models.InteractionEvent {
	return models.InteractionEvent{Role: role, Audio: audio, Timestamp: at}
}

func conversation(id string, events ...models.InteractionEvent) *models.Conversation {
	return &models.Conversation{ID: id, Source: "generic", Events: events}
}

func wantValue(t *testing.T, report *models.DimensionReport, name string, want float64) {
	t.Helper()
	ind, ok := report.Indicators[name]
	if !ok {
		t.Fatalf("indicator %q missing from report", name)
	}
	if ind.Insufficient {
		t.Fatalf("indicator %q marked insufficient: %s", name, ind.Interpretation)
	}
	if math.Abs(ind.Value-want) > 1e-9 {
		t.Errorf("indicator %q = %v, want %v", name, ind.Value, want)
	}
}

func wantInsufficient(t *testing.T, report *models.DimensionReport, name string) {
	t.Helper()
	ind, ok := report.Indicators[name]
	if !ok {
		t.Fatalf("indicator %q missing from report", name)
	}
	if !ind.Insufficient {
		t.Errorf("indicator %q = %v, want insufficient data", name, ind.Value)
	}
}

func TestRatioValue(t *testing.T) {
	var r ratio
	if _, ok := r.value(); ok {
		t.Error("empty ratio should report no value")
	}
	r.add(ratio{num: 1, den: 4})
	r.add(ratio{num: 1, den: 4})
	v, ok := r.value()
	if !ok || math.Abs(v-0.25) > 1e-9 {
		t.Errorf("pooled ratio = %v, %v, want 0.25, true", v, ok)
	}
}

func TestRegistryCanonicalOrder(t *testing.T) {
	reg := NewRegistry(patterns.Default())

	want := []string{models.DimSR, models.DimLC, models.DimAE, models.DimRCD, models.DimDF, models.DimPE}
	got := reg.Codes()
	if len(got) != len(want) {
		t.Fatalf("Codes() returned %d codes, want %d", len(got), len(want))
	}
	for i, code := range want {
		if got[i] != code {
			t.Errorf("Codes()[%d] = %q, want %q", i, got[i], code)
		}
	}
}

func TestRegistryGetCaseInsensitive(t *testing.T) {
	reg := NewRegistry(patterns.Default())

	a, ok := reg.Get("rcd")
	if !ok {
		t.Fatal("Get(\"rcd\") not found")
	}
	if a.Dimension() != models.DimRCD {
		t.Errorf("Get(\"rcd\").Dimension() = %q, want %q", a.Dimension(), models.DimRCD)
	}
	if _, ok := reg.Get("XX"); ok {
		t.Error("Get(\"XX\") should not resolve")
	}
}

func TestReportSkeleton(t *testing.T) {
	reg := NewRegistry(patterns.Default())
	a, _ := reg.Get(models.DimSR)

	conv := conversation("c1",
		textEvent(models.RoleUser, "Hello.", time.Time{}),
		textEvent(models.RoleAssistant, "Hi there.", time.Time{}),
	)
	report, err := a.AnalyzeConversation(conv)
	if err != nil {
		t.Fatalf("AnalyzeConversation: %v", err)
	}
	if report.Version == "" {
		t.Error("report has no version")
	}
	if len(report.Limitations) == 0 {
		t.Error("report has no limitations; every measurement must state what it cannot tell")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("report has no generation timestamp")
	}
}
