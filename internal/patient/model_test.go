package patient

import (
	"testing"

	"github.com/arkodent/clinic/internal/chart"
)

func TestNewPatient(t *testing.T) {
	p := New()

	if p.ID == "" {
		t.Error("Expected generated id")
	}
	if p.Revision() != 0 {
		t.Errorf("Expected revision 0, got %d", p.Revision())
	}
	if len(p.Chart) != len(chart.Permanent)+len(chart.Deciduous) {
		t.Errorf("Expected fully initialized chart, got %d teeth", len(p.Chart))
	}
	if p.Labels == nil || p.MedicalHistory == nil || p.Gallery == nil {
		t.Error("Expected tracked collections initialized to empty, not nil")
	}
}

func TestNewPatientUniqueIDs(t *testing.T) {
	a, b := New(), New()
	if a.ID == b.ID {
		t.Errorf("Expected distinct ids, both were %s", a.ID)
	}
}

// TestRevisionTracking documents the tracking boundary: helper mutations
// bump the counter exactly once each, whole-field reassignment does not.
func TestRevisionTracking(t *testing.T) {
	p := New()

	p.AddMedicalHistory("diabetic")
	if p.Revision() != 1 {
		t.Errorf("Expected revision 1 after append, got %d", p.Revision())
	}

	// Reassigning the whole slice, same contents, is not tracked
	p.MedicalHistory = []string{"diabetic"}
	if p.Revision() != 1 {
		t.Errorf("Expected revision unchanged after whole reassignment, got %d", p.Revision())
	}

	p.AddGalleryImage("scans/pano-01.png")
	p.AddLabel(Label{Text: "VIP", Category: LabelInfo})
	p.AddToothNote(36, "amalgam filling")
	if p.Revision() != 4 {
		t.Errorf("Expected revision 4, got %d", p.Revision())
	}

	if !p.RemoveMedicalHistory(0) {
		t.Fatal("Expected removal to succeed")
	}
	if p.Revision() != 5 {
		t.Errorf("Expected revision 5 after removal, got %d", p.Revision())
	}
}

func TestRevisionNotBumpedOnFailedMutation(t *testing.T) {
	p := New()

	if p.RemoveMedicalHistory(0) {
		t.Error("Expected removal from empty history to fail")
	}
	if p.RemoveLabel(-1) {
		t.Error("Expected negative index removal to fail")
	}
	if p.RemoveToothNote(11, 0) {
		t.Error("Expected note removal from empty tooth to fail")
	}
	if p.Revision() != 0 {
		t.Errorf("Expected revision 0 after failed mutations, got %d", p.Revision())
	}
}

func TestToothNoteMutations(t *testing.T) {
	p := New()

	p.AddToothNote(11, "chipped enamel")
	p.AddToothNote(11, "monitor")
	if got := p.Chart[11].Notes; len(got) != 2 {
		t.Fatalf("Expected 2 notes, got %v", got)
	}

	if !p.RemoveToothNote(11, 0) {
		t.Fatal("Expected removal to succeed")
	}
	if got := p.Chart[11].Notes; len(got) != 1 || got[0] != "monitor" {
		t.Errorf("Expected [monitor], got %v", got)
	}

	// Unknown position gets a tooth on the fly
	p.AddToothNote(99, "stray record")
	if _, ok := p.Chart[99]; !ok {
		t.Error("Expected tooth created for unknown position")
	}
}

func TestLabelOrderPreserved(t *testing.T) {
	p := New()
	p.AddLabel(Label{Text: "first"})
	p.AddLabel(Label{Text: "second"})
	p.AddLabel(Label{Text: "third"})

	if !p.RemoveLabel(1) {
		t.Fatal("Expected removal to succeed")
	}
	if p.Labels[0].Text != "first" || p.Labels[1].Text != "third" {
		t.Errorf("Expected insertion order preserved, got %v", p.Labels)
	}
}
