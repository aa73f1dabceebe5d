package appointment

import "time"

// Treatment is the procedure an appointment is booked for.
type Treatment struct {
	Type string `json:"type"`
}

// Appointment is a single entry in the clinic's appointment ledger. The
// patient record module reads these; it never mutates them.
type Appointment struct {
	ID                string     `json:"id"`
	PatientID         string     `json:"patient_id"`
	Date              time.Time  `json:"date"`
	IsDone            bool       `json:"is_done"`
	Treatment         *Treatment `json:"treatment,omitempty"`
	PaidAmount        float64    `json:"paid_amount"`
	OutstandingAmount float64    `json:"outstanding_amount"`
	OverpaidAmount    float64    `json:"overpaid_amount"`
}

// TreatmentType returns the linked treatment's type, or "" when no treatment
// is attached.
func (a *Appointment) TreatmentType() string {
	if a.Treatment == nil {
		return ""
	}
	return a.Treatment.Type
}
