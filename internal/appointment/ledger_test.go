package appointment

import "testing"

func TestLedgerListByPatientOrder(t *testing.T) {
	l := NewLedger()
	l.Put(Appointment{ID: "a1", PatientID: "p1"})
	l.Put(Appointment{ID: "a2", PatientID: "p2"})
	l.Put(Appointment{ID: "a3", PatientID: "p1"})

	got := l.ListByPatient("p1")
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a3" {
		t.Errorf("Expected ledger order a1,a3, got %s,%s", got[0].ID, got[1].ID)
	}

	if len(l.ListByPatient("unknown")) != 0 {
		t.Error("Expected no entries for unknown patient")
	}
}

func TestLedgerPutReplacesByID(t *testing.T) {
	l := NewLedger()
	l.Put(Appointment{ID: "a1", PatientID: "p1", PaidAmount: 10})
	l.Put(Appointment{ID: "a2", PatientID: "p1"})
	l.Put(Appointment{ID: "a1", PatientID: "p1", PaidAmount: 99})

	all := l.List()
	if len(all) != 2 {
		t.Fatalf("Expected 2 entries after replace, got %d", len(all))
	}
	if all[0].ID != "a1" || all[0].PaidAmount != 99 {
		t.Errorf("Expected a1 replaced in place, got %+v", all[0])
	}
}

func TestLedgerRemove(t *testing.T) {
	l := NewLedger()
	l.Put(Appointment{ID: "a1"})
	l.Put(Appointment{ID: "a2"})

	l.Remove("a1")
	if len(l.List()) != 1 || l.List()[0].ID != "a2" {
		t.Errorf("Expected only a2 left, got %v", l.List())
	}

	// Removing a missing id is a no-op.
	l.Remove("a1")
	if len(l.List()) != 1 {
		t.Error("Expected remove of missing id to be a no-op")
	}
}

func TestLedgerReplaceAll(t *testing.T) {
	l := NewLedger()
	l.Put(Appointment{ID: "old"})

	l.ReplaceAll([]Appointment{{ID: "n1"}, {ID: "n2"}})
	if len(l.List()) != 2 || l.List()[0].ID != "n1" {
		t.Errorf("Expected replaced contents, got %v", l.List())
	}

	l.ReplaceAll(nil)
	if l.List() == nil || len(l.List()) != 0 {
		t.Error("Expected nil ReplaceAll to leave an empty, non-nil ledger")
	}
}

func TestTreatmentType(t *testing.T) {
	a := Appointment{}
	if a.TreatmentType() != "" {
		t.Error("Expected empty treatment type when no treatment is attached")
	}
	a.Treatment = &Treatment{Type: "Filling"}
	if a.TreatmentType() != "Filling" {
		t.Errorf("Expected Filling, got %s", a.TreatmentType())
	}
}
