package patient

// Repository is the in-memory patient collection, the explicit replacement
// for the global list the UI used to share. Like the appointment ledger it
// relies on single-writer discipline rather than internal locking.
type Repository struct {
	patients []*Patient
}

func NewRepository() *Repository {
	return &Repository{patients: []*Patient{}}
}

// Find returns the patient with the given id, or nil.
func (r *Repository) Find(id string) *Patient {
	for _, p := range r.patients {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ListAll returns every patient in insertion order.
func (r *Repository) ListAll() []*Patient {
	return r.patients
}

// Add appends a patient to the collection.
func (r *Repository) Add(p *Patient) {
	r.patients = append(r.patients, p)
}

// Remove deletes the patient with the given id. The entity holds no other
// persistent resources; dropping it from here destroys it.
func (r *Repository) Remove(id string) bool {
	for i, p := range r.patients {
		if p.ID == id {
			r.patients = append(r.patients[:i], r.patients[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps the collection contents, used when hydrating from
// storage.
func (r *Repository) ReplaceAll(patients []*Patient) {
	if patients == nil {
		patients = []*Patient{}
	}
	r.patients = patients
}
