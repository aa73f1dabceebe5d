package patient

import (
	"strconv"
	"strings"
	"time"

	"github.com/arkodent/clinic/internal/appointment"
	"github.com/arkodent/clinic/internal/settings"
)

// Deriver computes the patient's derived attributes from current entity
// state, the appointment ledger, and the clinic settings. Every method is a
// pure function of those inputs; nothing is cached, and none of them can
// fail — absent appointments or treatments substitute zero values.
type Deriver struct {
	Ledger   *appointment.Ledger
	Settings *settings.Store

	// Now is the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

func NewDeriver(ledger *appointment.Ledger, st *settings.Store) *Deriver {
	return &Deriver{Ledger: ledger, Settings: st}
}

func (d *Deriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Age is current year minus birth year, with a guard: if the raw difference
// exceeds the birth year itself, the birth year is returned instead. The
// guard covers nonsensical future birth years and is relied on by existing
// consumers; it is not a clamp to zero.
func (d *Deriver) Age(p *Patient) int {
	diff := d.now().Year() - p.BirthYear
	if diff > p.BirthYear {
		return p.BirthYear
	}
	return diff
}

// Appointments returns this patient's ledger entries in ledger order.
func (d *Deriver) Appointments(p *Patient) []appointment.Appointment {
	return d.Ledger.ListByPatient(p.ID)
}

// LastAppointment is the completed appointment with the latest date, or nil
// when the patient has none.
func (d *Deriver) LastAppointment(p *Patient) *appointment.Appointment {
	var last *appointment.Appointment
	for _, a := range d.Appointments(p) {
		if !a.IsDone {
			continue
		}
		a := a
		if last == nil || a.Date.After(last.Date) {
			last = &a
		}
	}
	return last
}

// NextAppointment is the pending appointment with the earliest date among
// those whose date is same-or-future relative to today, or nil when there is
// none.
//
// "Same-or-future" is decided per component: candidate year >= today's year
// AND month >= month AND day >= day, each compared independently rather than
// as a composed calendar date. A candidate in an earlier month of a later
// year is therefore excluded. Existing records and consumers depend on this
// exact rule; do not swap in a chronological comparison.
func (d *Deriver) NextAppointment(p *Patient) *appointment.Appointment {
	ty, tm, td := d.now().Date()
	var next *appointment.Appointment
	for _, a := range d.Appointments(p) {
		if a.IsDone {
			continue
		}
		ay, am, ad := a.Date.Date()
		if ty > ay || int(tm) > int(am) || td > ad {
			continue
		}
		a := a
		if next == nil || a.Date.Before(next.Date) {
			next = &a
		}
	}
	return next
}

// HasPrimaryTeeth reports whether the deciduous chart is clinically relevant.
func (d *Deriver) HasPrimaryTeeth(p *Patient) bool {
	return d.Age(p) < 18
}

// HasPermanentTeeth reports whether the permanent chart is clinically
// relevant.
func (d *Deriver) HasPermanentTeeth(p *Patient) bool {
	return d.Age(p) > 5
}

// TotalPayments is the sum of paid amounts across the patient's
// appointments.
func (d *Deriver) TotalPayments(p *Patient) float64 {
	var total float64
	for _, a := range d.Appointments(p) {
		total += a.PaidAmount
	}
	return total
}

// OutstandingAmount is the sum of outstanding amounts across the patient's
// appointments.
func (d *Deriver) OutstandingAmount(p *Patient) float64 {
	var total float64
	for _, a := range d.Appointments(p) {
		total += a.OutstandingAmount
	}
	return total
}

// OverpaidAmount is the sum of overpaid amounts across the patient's
// appointments.
func (d *Deriver) OverpaidAmount(p *Patient) float64 {
	var total float64
	for _, a := range d.Appointments(p) {
		total += a.OverpaidAmount
	}
	return total
}

// DifferenceAmount is overpaid minus outstanding. Negative means the patient
// owes the clinic, positive means the clinic owes the patient.
func (d *Deriver) DifferenceAmount(p *Patient) float64 {
	return d.OverpaidAmount(p) - d.OutstandingAmount(p)
}

// SearchableString is the lowercase haystack the patient list filters
// against: demographics, labels, medical history, tooth notes, next/last
// appointment treatment and date, and an outstanding/overpaid phrase when
// the balance is nonzero. Tooth notes are emitted in ascending position
// order so the result is deterministic.
func (d *Deriver) SearchableString(p *Patient) string {
	parts := []string{
		strconv.Itoa(d.Age(p)),
		strconv.Itoa(p.BirthYear),
		p.Phone,
		p.Email,
		p.Address,
		p.Gender.String(),
		p.Name,
	}
	for _, l := range p.Labels {
		parts = append(parts, l.Text)
	}
	parts = append(parts, p.MedicalHistory...)
	for _, pos := range p.Chart.Positions() {
		parts = append(parts, p.Chart[pos].Notes...)
	}

	dateFormat := d.Settings.GetSetting(settings.KeyDateFormat)
	next := d.NextAppointment(p)
	last := d.LastAppointment(p)
	if next != nil {
		parts = append(parts, next.TreatmentType(), settings.FormatDate(next.Date, dateFormat))
	} else {
		parts = append(parts, "", "")
	}
	if last != nil {
		parts = append(parts, last.TreatmentType(), settings.FormatDate(last.Date, dateFormat))
	} else {
		parts = append(parts, "", "")
	}

	diff := d.DifferenceAmount(p)
	if diff < 0 {
		parts = append(parts, "outstanding "+formatAmount(d.OutstandingAmount(p)))
	}
	if diff > 0 {
		parts = append(parts, "Overpaid "+formatAmount(d.OverpaidAmount(p)))
	}

	return strings.ToLower(strings.Join(parts, " "))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
