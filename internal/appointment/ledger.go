package appointment

// Ledger is the in-memory appointment collection. It replaces the ambient
// global list the UI used to reach into: readers get an explicit object with
// a narrow query surface, writers go through Put/Remove/ReplaceAll.
//
// The ledger does no locking of its own. The execution model is cooperative
// and single-writer; the service layer serializes access.
type Ledger struct {
	entries []Appointment
}

func NewLedger() *Ledger {
	return &Ledger{entries: []Appointment{}}
}

// List returns all ledger entries in ledger order.
func (l *Ledger) List() []Appointment {
	return l.entries
}

// ListByPatient returns the entries whose patient id matches, preserving
// ledger order.
func (l *Ledger) ListByPatient(patientID string) []Appointment {
	out := []Appointment{}
	for _, a := range l.entries {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

// Put appends the appointment, or replaces the existing entry with the same
// id in place.
func (l *Ledger) Put(a Appointment) {
	for i := range l.entries {
		if l.entries[i].ID == a.ID {
			l.entries[i] = a
			return
		}
	}
	l.entries = append(l.entries, a)
}

// Remove deletes the entry with the given id, if present.
func (l *Ledger) Remove(id string) {
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// ReplaceAll swaps the ledger contents, used when hydrating from storage.
func (l *Ledger) ReplaceAll(entries []Appointment) {
	if entries == nil {
		entries = []Appointment{}
	}
	l.entries = entries
}
