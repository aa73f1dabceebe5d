package patient

import (
	"encoding/json"

	"github.com/arkodent/clinic/internal/chart"
)

// String returns the wire/display form of the gender value.
func (g Gender) String() string {
	if g == GenderFemale {
		return "female"
	}
	return "male"
}

// GenderFromString decodes a gender wire string. Unrecognized input falls
// back to GenderMale, the same default a freshly created record carries;
// decode never fails on it.
func GenderFromString(s string) Gender {
	if s == "female" {
		return GenderFemale
	}
	return GenderMale
}

var labelCategoryNames = map[LabelCategory]string{
	LabelPrimary: "primary",
	LabelInfo:    "info",
	LabelSuccess: "success",
	LabelWarning: "warning",
	LabelDanger:  "danger",
}

// String returns the wire/display form of the label category.
func (c LabelCategory) String() string {
	if name, ok := labelCategoryNames[c]; ok {
		return name
	}
	return "primary"
}

// LabelCategoryFromString decodes a category wire string. Unrecognized input
// falls back to LabelPrimary; decode never fails on it.
func LabelCategoryFromString(s string) LabelCategory {
	for c, name := range labelCategoryNames {
		if name == s {
			return c
		}
	}
	return LabelPrimary
}

// LabelRecord is the persisted form of a label.
type LabelRecord struct {
	Text string `json:"text" bson:"text"`
	Type string `json:"type" bson:"type"`
}

// stringList is a []string that tolerates malformed input: anything that is
// not a proper JSON array of strings decodes to an empty list instead of
// failing the whole record.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var items []string
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*l = stringList{}
		return nil
	}
	*l = items
	return nil
}

// Record is the flat persisted form of a patient, the shape the persistence
// layer round-trips. The revision counter is transient and has no field
// here.
type Record struct {
	ID             string         `json:"_id" bson:"_id"`
	Name           string         `json:"name" bson:"name"`
	BirthYear      int            `json:"birthYear" bson:"birthYear"`
	Gender         string         `json:"gender" bson:"gender"`
	Tags           string         `json:"tags" bson:"tags"`
	Address        string         `json:"address" bson:"address"`
	Email          string         `json:"email" bson:"email"`
	Phone          string         `json:"phone" bson:"phone"`
	MedicalHistory stringList     `json:"medicalHistory" bson:"medicalHistory"`
	Gallery        stringList     `json:"gallery" bson:"gallery"`
	Teeth          []*chart.Tooth `json:"teeth" bson:"teeth"`
	Labels         []LabelRecord  `json:"labels" bson:"labels"`
}

// FromRecord builds a patient from its persisted form. The chart is fully
// initialized first; positions present in the record overwrite their default
// tooth, null slots are skipped and keep theirs. Absent or malformed
// medicalHistory and gallery decode to empty lists.
func FromRecord(rec Record) *Patient {
	p := New()
	p.ID = rec.ID
	p.Name = rec.Name
	p.BirthYear = rec.BirthYear
	p.Gender = GenderFromString(rec.Gender)
	p.Tags = rec.Tags
	p.Address = rec.Address
	p.Email = rec.Email
	p.Phone = rec.Phone

	p.MedicalHistory = []string(rec.MedicalHistory)
	if p.MedicalHistory == nil {
		p.MedicalHistory = []string{}
	}
	p.Gallery = []string(rec.Gallery)
	if p.Gallery == nil {
		p.Gallery = []string{}
	}

	for _, t := range rec.Teeth {
		if t != nil {
			p.Chart.Load(*t)
		}
	}

	p.Labels = make([]Label, 0, len(rec.Labels))
	for _, l := range rec.Labels {
		p.Labels = append(p.Labels, Label{
			Text:     l.Text,
			Category: LabelCategoryFromString(l.Type),
		})
	}

	return p
}

// ToRecord returns the patient's persisted form. Every chart position is
// emitted, synthesized defaults included, in ascending position order; a
// record decoded from a sparse hand-written document therefore encodes
// larger than its source, but encode-decode-encode is a fixed point.
func (p *Patient) ToRecord() Record {
	teeth := make([]*chart.Tooth, 0, len(p.Chart))
	for _, pos := range p.Chart.Positions() {
		t := p.Chart[pos]
		notes := make([]string, len(t.Notes))
		copy(notes, t.Notes)
		teeth = append(teeth, &chart.Tooth{Position: t.Position, Notes: notes})
	}

	labels := make([]LabelRecord, 0, len(p.Labels))
	for _, l := range p.Labels {
		labels = append(labels, LabelRecord{Text: l.Text, Type: l.Category.String()})
	}

	history := make([]string, len(p.MedicalHistory))
	copy(history, p.MedicalHistory)
	gallery := make([]string, len(p.Gallery))
	copy(gallery, p.Gallery)

	return Record{
		ID:             p.ID,
		Name:           p.Name,
		BirthYear:      p.BirthYear,
		Gender:         p.Gender.String(),
		Tags:           p.Tags,
		Address:        p.Address,
		Email:          p.Email,
		Phone:          p.Phone,
		MedicalHistory: stringList(history),
		Gallery:        stringList(gallery),
		Teeth:          teeth,
		Labels:         labels,
	}
}
