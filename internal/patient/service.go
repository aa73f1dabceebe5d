package patient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/arkodent/clinic/internal/appointment"
	"github.com/arkodent/clinic/internal/audit"
)

var (
	ErrPatientNotFound        = errors.New("patient not found")
	ErrInvalidPatientData     = errors.New("invalid patient data")
	ErrNoSuchEntry            = errors.New("no entry at index")
	ErrInvalidAppointmentData = errors.New("invalid appointment data")
)

// Store is the persistence contract for patient records. The mongo-backed
// implementation lives in mongostore.go; tests substitute their own.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	FindByID(ctx context.Context, id string) (Record, error)
	Replace(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]Record, error)
}

// AppointmentStore is the write-through contract for ledger entries; the
// pgx-backed implementation lives in the appointment package.
type AppointmentStore interface {
	Save(ctx context.Context, a appointment.Appointment) error
	Delete(ctx context.Context, id string) error
}

// Summary is the derived per-patient view the patient list renders: age,
// chart eligibility, last/next appointment, and the financial totals.
type Summary struct {
	ID                string                   `json:"id"`
	Name              string                   `json:"name"`
	Age               int                      `json:"age"`
	HasPrimaryTeeth   bool                     `json:"has_primary_teeth"`
	HasPermanentTeeth bool                     `json:"has_permanent_teeth"`
	LastAppointment   *appointment.Appointment `json:"last_appointment,omitempty"`
	NextAppointment   *appointment.Appointment `json:"next_appointment,omitempty"`
	TotalPayments     float64                  `json:"total_payments"`
	OutstandingAmount float64                  `json:"outstanding_amount"`
	OverpaidAmount    float64                  `json:"overpaid_amount"`
	DifferenceAmount  float64                  `json:"difference_amount"`
	Revision          uint64                   `json:"revision"`
}

type Service interface {
	Hydrate(ctx context.Context) error
	Create(ctx context.Context, p *Patient) error
	Get(ctx context.Context, id string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Mutate(ctx context.Context, id string, fn func(p *Patient) error) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Patient, error)
	Search(ctx context.Context, query string) ([]*Patient, error)
	Summary(ctx context.Context, id string) (*Summary, error)
	Appointments(ctx context.Context, id string) ([]appointment.Appointment, error)
	SaveAppointment(ctx context.Context, a appointment.Appointment) error
	DeleteAppointment(ctx context.Context, id string) error
	Deriver() *Deriver
}

type service struct {
	repo         *Repository
	store        Store
	appointments AppointmentStore
	deriver      *Deriver
	audit        audit.Service

	// The in-memory repository and ledger assume a single writer at a
	// time; HTTP handlers arrive on many goroutines, so the service
	// funnels every operation through one mutex. Entity mutation goes
	// through Mutate so it happens under the same lock.
	mu sync.Mutex
}

func NewService(repo *Repository, store Store, appointments AppointmentStore, deriver *Deriver, auditService audit.Service) Service {
	return &service{
		repo:         repo,
		store:        store,
		appointments: appointments,
		deriver:      deriver,
		audit:        auditService,
	}
}

// Hydrate loads every persisted record into the in-memory collection.
func (s *service) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}

	patients := make([]*Patient, 0, len(records))
	for _, rec := range records {
		patients = append(patients, FromRecord(rec))
	}
	s.repo.ReplaceAll(patients)
	return nil
}

func (s *service) Create(ctx context.Context, p *Patient) error {
	if p == nil || p.ID == "" {
		return ErrInvalidPatientData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Insert(ctx, p.ToRecord()); err != nil {
		return err
	}
	s.repo.Add(p)

	s.logEvent(ctx, audit.EventModify, "CREATE", p.ID, "success")
	return nil
}

func (s *service) Get(ctx context.Context, id string) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.repo.Find(id)
	if p == nil {
		return nil, ErrPatientNotFound
	}

	s.logEvent(ctx, audit.EventAccess, "READ", id, "success")
	return p, nil
}

func (s *service) Update(ctx context.Context, p *Patient) error {
	if p == nil || p.ID == "" {
		return ErrInvalidPatientData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo.Find(p.ID) == nil {
		return ErrPatientNotFound
	}
	if err := s.store.Replace(ctx, p.ToRecord()); err != nil {
		return err
	}

	s.logEvent(ctx, audit.EventModify, "UPDATE", p.ID, "success")
	return nil
}

// Mutate loads the patient, runs fn on it, and persists the result, all
// under the service mutex. Handlers use it for the tracked collection
// mutations; calling the entity helpers outside the lock would race with
// concurrent requests on the same patient. A non-nil error from fn aborts
// the operation before anything is persisted.
func (s *service) Mutate(ctx context.Context, id string, fn func(p *Patient) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.repo.Find(id)
	if p == nil {
		return ErrPatientNotFound
	}
	if err := fn(p); err != nil {
		return err
	}
	if err := s.store.Replace(ctx, p.ToRecord()); err != nil {
		return err
	}

	s.logEvent(ctx, audit.EventModify, "UPDATE", id, "success")
	return nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.repo.Remove(id) {
		return ErrPatientNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logEvent(ctx, audit.EventDelete, "DELETE", id, "success")
	return nil
}

func (s *service) List(ctx context.Context) ([]*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repo.ListAll(), nil
}

// Search filters patients whose searchable string contains the query,
// case-insensitively. An empty query matches everyone.
func (s *service) Search(ctx context.Context, query string) ([]*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(query))
	matches := []*Patient{}
	for _, p := range s.repo.ListAll() {
		if needle == "" || strings.Contains(s.deriver.SearchableString(p), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

func (s *service) Summary(ctx context.Context, id string) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.repo.Find(id)
	if p == nil {
		return nil, ErrPatientNotFound
	}

	d := s.deriver
	return &Summary{
		ID:                p.ID,
		Name:              p.Name,
		Age:               d.Age(p),
		HasPrimaryTeeth:   d.HasPrimaryTeeth(p),
		HasPermanentTeeth: d.HasPermanentTeeth(p),
		LastAppointment:   d.LastAppointment(p),
		NextAppointment:   d.NextAppointment(p),
		TotalPayments:     d.TotalPayments(p),
		OutstandingAmount: d.OutstandingAmount(p),
		OverpaidAmount:    d.OverpaidAmount(p),
		DifferenceAmount:  d.DifferenceAmount(p),
		Revision:          p.Revision(),
	}, nil
}

func (s *service) Appointments(ctx context.Context, id string) ([]appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.repo.Find(id)
	if p == nil {
		return nil, ErrPatientNotFound
	}
	return s.deriver.Appointments(p), nil
}

// SaveAppointment upserts a ledger entry and writes it through to storage.
func (s *service) SaveAppointment(ctx context.Context, a appointment.Appointment) error {
	if a.ID == "" || a.PatientID == "" {
		return ErrInvalidAppointmentData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appointments.Save(ctx, a); err != nil {
		return err
	}
	s.deriver.Ledger.Put(a)

	s.logEventFor(ctx, audit.EventModify, "UPSERT", "appointment", a.ID, "success")
	return nil
}

// DeleteAppointment removes a ledger entry and its stored row.
func (s *service) DeleteAppointment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.appointments.Delete(ctx, id); err != nil {
		return err
	}
	s.deriver.Ledger.Remove(id)

	s.logEventFor(ctx, audit.EventDelete, "DELETE", "appointment", id, "success")
	return nil
}

func (s *service) Deriver() *Deriver {
	return s.deriver
}

func (s *service) logEvent(ctx context.Context, eventType audit.EventType, action, resourceID, status string) {
	s.logEventFor(ctx, eventType, action, "patient", resourceID, status)
}

func (s *service) logEventFor(ctx context.Context, eventType audit.EventType, action, resource, resourceID, status string) {
	userID, _ := ctx.Value("user_id").(string)
	s.audit.LogEvent(ctx, &audit.AuditEvent{
		EventType:   eventType,
		UserID:      userID,
		Action:      action,
		Resource:    resource,
		ResourceID:  resourceID,
		Status:      status,
		Sensitivity: "PHI",
		Timestamp:   time.Now(),
	})
}
