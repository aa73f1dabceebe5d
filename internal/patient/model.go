package patient

import (
	"github.com/arkodent/clinic/internal/chart"
	"github.com/arkodent/clinic/internal/ident"
)

// Gender is the closed set of patient gender values. The zero value is
// GenderMale, matching a freshly created record.
type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
)

// LabelCategory is the closed set of label display categories. The zero
// value is LabelPrimary.
type LabelCategory int

const (
	LabelPrimary LabelCategory = iota
	LabelInfo
	LabelSuccess
	LabelWarning
	LabelDanger
)

// Label is a short tag attached to a patient. Insertion order is display
// order.
type Label struct {
	Text     string
	Category LabelCategory
}

// Patient is the aggregate root of the clinical record. Scalar fields are
// mutated by direct assignment; the tracked collections (MedicalHistory,
// Gallery, Labels, per-tooth Notes) are mutated through the helper methods
// below, which bump the revision counter so consumers can cheaply detect
// changes without deep equality.
//
// Replacing a whole slice by assignment is deliberately NOT tracked; only
// in-place structural mutation through the helpers is.
type Patient struct {
	ID        string
	Name      string
	BirthYear int
	Gender    Gender
	Tags      string
	Address   string
	Email     string
	Phone     string

	Labels         []Label
	MedicalHistory []string
	Gallery        []string
	Chart          chart.Chart

	rev uint64
}

// New returns a fresh patient with a generated id, empty fields, and a fully
// initialized dental chart (one empty-notes tooth per position in both the
// permanent and deciduous sets).
func New() *Patient {
	return &Patient{
		ID:             ident.New(),
		Labels:         []Label{},
		MedicalHistory: []string{},
		Gallery:        []string{},
		Chart:          chart.New(),
	}
}

// Revision returns the monotonic change counter. It starts at 0, increments
// once per tracked mutation, and is never persisted.
func (p *Patient) Revision() uint64 {
	return p.rev
}

func (p *Patient) touch() {
	p.rev++
}

// AddMedicalHistory appends one entry to the medical history.
func (p *Patient) AddMedicalHistory(entry string) {
	p.MedicalHistory = append(p.MedicalHistory, entry)
	p.touch()
}

// RemoveMedicalHistory deletes the entry at index i. Out-of-range indexes
// leave the record untouched and do not bump the revision.
func (p *Patient) RemoveMedicalHistory(i int) bool {
	if i < 0 || i >= len(p.MedicalHistory) {
		return false
	}
	p.MedicalHistory = append(p.MedicalHistory[:i], p.MedicalHistory[i+1:]...)
	p.touch()
	return true
}

// AddGalleryImage appends an image reference to the gallery.
func (p *Patient) AddGalleryImage(ref string) {
	p.Gallery = append(p.Gallery, ref)
	p.touch()
}

// RemoveGalleryImage deletes the gallery entry at index i.
func (p *Patient) RemoveGalleryImage(i int) bool {
	if i < 0 || i >= len(p.Gallery) {
		return false
	}
	p.Gallery = append(p.Gallery[:i], p.Gallery[i+1:]...)
	p.touch()
	return true
}

// AddLabel appends a label, preserving display order.
func (p *Patient) AddLabel(l Label) {
	p.Labels = append(p.Labels, l)
	p.touch()
}

// RemoveLabel deletes the label at index i.
func (p *Patient) RemoveLabel(i int) bool {
	if i < 0 || i >= len(p.Labels) {
		return false
	}
	p.Labels = append(p.Labels[:i], p.Labels[i+1:]...)
	p.touch()
	return true
}

// AddToothNote appends a clinical note to the tooth at the given position.
// Unknown positions get a tooth created on the fly, mirroring the chart's
// no-validation indexing.
func (p *Patient) AddToothNote(position int, note string) {
	t, ok := p.Chart[position]
	if !ok {
		t = &chart.Tooth{Position: position, Notes: []string{}}
		p.Chart[position] = t
	}
	t.Notes = append(t.Notes, note)
	p.touch()
}

// RemoveToothNote deletes note i from the tooth at the given position.
func (p *Patient) RemoveToothNote(position, i int) bool {
	t, ok := p.Chart[position]
	if !ok || i < 0 || i >= len(t.Notes) {
		return false
	}
	t.Notes = append(t.Notes[:i], t.Notes[i+1:]...)
	p.touch()
	return true
}
