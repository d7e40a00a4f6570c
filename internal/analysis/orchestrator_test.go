package analysis

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/techgini/verifybot/internal/audit"
	"github.com/techgini/verifybot/internal/gateway"
	"github.com/techgini/verifybot/internal/models"
	"github.com/techgini/verifybot/internal/storage"
	"go.uber.org/zap"
)

type fakeGateway struct {
	verdict      models.Verdict
	analyzeCalls int
	lastText     string
	lastImage    *gateway.Image
}

func (f *fakeGateway) AnalyzeStructured(_ context.Context, text string, img *gateway.Image) models.Verdict {
	f.analyzeCalls++
	f.lastText = text
	f.lastImage = img
	return f.verdict
}

func (f *fakeGateway) DescribeImage(context.Context, *gateway.Image, string) string {
	return "description"
}

func (f *fakeGateway) Chat(context.Context, string, []models.Turn) string {
	return "chat"
}

func newTestOrchestrator(t *testing.T, gw gateway.ModelGateway) (*Orchestrator, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(6)
	auditLog := audit.Open(filepath.Join(t.TempDir(), "bot_logs.txt"), zap.NewNop())
	t.Cleanup(func() { auditLog.Close() })
	return NewOrchestrator(gw, store, auditLog, zap.NewNop()), store
}

func TestRunEmptyContentShortCircuits(t *testing.T) {
	gw := &fakeGateway{}
	o, _ := newTestOrchestrator(t, gw)

	reply := o.Run(context.Background(), 1, "alice", "   ", nil)

	if gw.analyzeCalls != 0 {
		t.Fatalf("gateway called %d times for empty content, want 0", gw.analyzeCalls)
	}
	if !strings.Contains(reply, "No content provided.") {
		t.Fatalf("reply missing no-content reason:\n%s", reply)
	}
	if !strings.Contains(reply, "(Yellow Flag)") || !strings.Contains(reply, "(0%)") {
		t.Fatalf("reply is not an UNSURE/0 verdict:\n%s", reply)
	}
}

func TestRunRedSetsComplaintAndCTA(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{
		Result:     models.ResultFake,
		Confidence: 80,
		Reason:     "Urgency and an unverified prize link.",
		WhyCardEN:  "Prize scam.",
		WhyCardHI:  "घोटाला।",
		RedFlags:   []string{"Urgent Action Required"},
	}}
	o, store := newTestOrchestrator(t, gw)

	content := "Win a free iPhone now, click this link"
	reply := o.Run(context.Background(), 42, "alice", content, nil)

	if gw.analyzeCalls != 1 || gw.lastText != content {
		t.Fatalf("gateway calls = %d, text = %q", gw.analyzeCalls, gw.lastText)
	}
	if !strings.Contains(reply, "(Red Flag)") {
		t.Fatalf("reply missing Red Flag title:\n%s", reply)
	}
	if !strings.Contains(reply, "`/complaint`") {
		t.Fatalf("reply missing call to action:\n%s", reply)
	}

	complaint, ok, err := store.LastComplaint(42)
	if err != nil || !ok {
		t.Fatalf("LastComplaint ok = %v, err = %v", ok, err)
	}
	if !strings.Contains(complaint, content) || !strings.Contains(complaint, gw.verdict.Reason) {
		t.Fatalf("complaint missing content or reason: %q", complaint)
	}
}

func TestRunGreenLeavesNoComplaint(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{
		Result:     models.ResultReal,
		Confidence: 90,
		Reason:     "Consistent with official sources.",
	}}
	o, store := newTestOrchestrator(t, gw)

	reply := o.Run(context.Background(), 7, "bob", "the sky is blue", nil)

	if !strings.Contains(reply, "(Green Flag)") {
		t.Fatalf("reply missing Green Flag title:\n%s", reply)
	}
	if strings.Contains(reply, "/complaint") {
		t.Fatalf("green reply carries call to action:\n%s", reply)
	}
	if _, ok, _ := store.LastComplaint(7); ok {
		t.Fatal("complaint stored for a green result")
	}
}

func TestRunComplaintOverwrite(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{
		Result:     models.ResultFake,
		Confidence: 99,
		Reason:     "first reason",
	}}
	o, store := newTestOrchestrator(t, gw)

	o.Run(context.Background(), 9, "eve", "first scam", nil)
	gw.verdict.Reason = "second reason"
	o.Run(context.Background(), 9, "eve", "second scam", nil)

	complaint, ok, err := store.LastComplaint(9)
	if err != nil || !ok {
		t.Fatalf("LastComplaint ok = %v, err = %v", ok, err)
	}
	if !strings.Contains(complaint, "second scam") || strings.Contains(complaint, "first scam") {
		t.Fatalf("complaint not overwritten: %q", complaint)
	}
}

func TestRunPassesImageToGateway(t *testing.T) {
	gw := &fakeGateway{verdict: models.Verdict{Result: models.ResultUnsure}}
	o, _ := newTestOrchestrator(t, gw)

	img := &gateway.Image{Data: []byte{1, 2}, MimeType: "image/jpeg"}
	o.Run(context.Background(), 3, "carol", "", img)

	if gw.analyzeCalls != 1 {
		t.Fatalf("gateway calls = %d, want 1 for image-only content", gw.analyzeCalls)
	}
	if gw.lastImage != img {
		t.Fatal("image not forwarded to gateway")
	}
}
