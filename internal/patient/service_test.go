package patient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arkodent/clinic/internal/appointment"
	"github.com/arkodent/clinic/internal/audit"
	"github.com/arkodent/clinic/internal/settings"
)

// mockStore is an in-memory Store with injectable failures.
type mockStore struct {
	records map[string]Record

	insertErr  error
	replaceErr error
	deleteErr  error
	listErr    error
}

func newMockStore() *mockStore {
	return &mockStore{records: map[string]Record{}}
}

func (m *mockStore) Insert(ctx context.Context, rec Record) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *mockStore) FindByID(ctx context.Context, id string) (Record, error) {
	rec, ok := m.records[id]
	if !ok {
		return Record{}, ErrPatientNotFound
	}
	return rec, nil
}

func (m *mockStore) Replace(ctx context.Context, rec Record) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.records, id)
	return nil
}

func (m *mockStore) ListAll(ctx context.Context) ([]Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

// mockApptStore records write-throughs without a database.
type mockApptStore struct {
	saved   map[string]appointment.Appointment
	deleted []string

	saveErr error
}

func newMockApptStore() *mockApptStore {
	return &mockApptStore{saved: map[string]appointment.Appointment{}}
}

func (m *mockApptStore) Save(ctx context.Context, a appointment.Appointment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[a.ID] = a
	return nil
}

func (m *mockApptStore) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.saved, id)
	return nil
}

// mockAudit records events without a backend.
type mockAudit struct {
	events []*audit.AuditEvent
}

func (m *mockAudit) LogEvent(ctx context.Context, event *audit.AuditEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockAudit) QueryEvents(ctx context.Context, filters map[string]interface{}, from, size int) ([]audit.AuditEvent, error) {
	return nil, nil
}

type serviceFixture struct {
	svc       Service
	store     *mockStore
	apptStore *mockApptStore
	audit     *mockAudit
	ledger    *appointment.Ledger
}

func newServiceFixture() *serviceFixture {
	store := newMockStore()
	apptStore := newMockApptStore()
	aud := &mockAudit{}
	ledger := appointment.NewLedger()
	deriver := NewDeriver(ledger, settings.NewStore())
	deriver.Now = func() time.Time {
		return time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return &serviceFixture{
		svc:       NewService(NewRepository(), store, apptStore, deriver, aud),
		store:     store,
		apptStore: apptStore,
		audit:     aud,
		ledger:    ledger,
	}
}

func TestServiceCreateAndGet(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	p.Name = "Maria"
	err := f.svc.Create(ctx, p)
	assert.NoError(t, err)

	got, err := f.svc.Get(ctx, p.ID)
	assert.NoError(t, err)
	assert.Same(t, p, got)

	_, ok := f.store.records[p.ID]
	assert.True(t, ok, "record should be persisted")

	assert.Len(t, f.audit.events, 2)
	assert.Equal(t, "CREATE", f.audit.events[0].Action)
	assert.Equal(t, "PHI", f.audit.events[0].Sensitivity)
}

func TestServiceCreateInvalid(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.Create(ctx, nil), ErrInvalidPatientData)

	p := New()
	p.ID = ""
	assert.ErrorIs(t, f.svc.Create(ctx, p), ErrInvalidPatientData)
	assert.Empty(t, f.audit.events)
}

func TestServiceCreateStoreFailure(t *testing.T) {
	f := newServiceFixture()
	f.store.insertErr = errors.New("boom")

	p := New()
	err := f.svc.Create(context.Background(), p)
	assert.Error(t, err)

	_, getErr := f.svc.Get(context.Background(), p.ID)
	assert.ErrorIs(t, getErr, ErrPatientNotFound, "failed insert must not register the patient")
}

func TestServiceGetMissing(t *testing.T) {
	f := newServiceFixture()
	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestServiceUpdate(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))

	p.Name = "Renamed"
	assert.NoError(t, f.svc.Update(ctx, p))
	assert.Equal(t, "Renamed", f.store.records[p.ID].Name)

	ghost := New()
	assert.ErrorIs(t, f.svc.Update(ctx, ghost), ErrPatientNotFound)
}

func TestServiceMutate(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))

	err := f.svc.Mutate(ctx, p.ID, func(p *Patient) error {
		p.AddMedicalHistory("Penicillin allergy")
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), p.Revision())
	assert.Equal(t, []string{"Penicillin allergy"}, []string(f.store.records[p.ID].MedicalHistory))

	err = f.svc.Mutate(ctx, "nope", func(p *Patient) error { return nil })
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestServiceMutateFnErrorAbortsPersist(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))
	before := f.store.records[p.ID]

	boom := errors.New("boom")
	err := f.svc.Mutate(ctx, p.ID, func(p *Patient) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, f.store.records[p.ID], "failed mutation must not persist")
}

// Handlers on concurrent requests all mutate through the service, so entity
// helper calls are serialized and no revision bump is lost.
func TestServiceMutateConcurrent(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.Mutate(ctx, p.ID, func(p *Patient) error {
				p.AddMedicalHistory("entry")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, p.MedicalHistory, writers)
	assert.Equal(t, uint64(writers), p.Revision())
	assert.Len(t, f.store.records[p.ID].MedicalHistory, writers)
}

func TestServiceDelete(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))
	assert.NoError(t, f.svc.Delete(ctx, p.ID))

	_, err := f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.NotContains(t, f.store.records, p.ID)

	assert.ErrorIs(t, f.svc.Delete(ctx, p.ID), ErrPatientNotFound)
}

func TestServiceHydrate(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	f.store.records["p1"] = Record{ID: "p1", Name: "Stored One"}
	f.store.records["p2"] = Record{ID: "p2", Name: "Stored Two"}

	assert.NoError(t, f.svc.Hydrate(ctx))

	all, err := f.svc.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	p, err := f.svc.Get(ctx, "p1")
	assert.NoError(t, err)
	assert.Equal(t, "Stored One", p.Name)
	assert.NotNil(t, p.Chart[11], "hydrated patient gets a full chart")
}

func TestServiceSearch(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	maria := New()
	maria.Name = "Maria Petrova"
	ivan := New()
	ivan.Name = "Ivan Stoyanov"
	assert.NoError(t, f.svc.Create(ctx, maria))
	assert.NoError(t, f.svc.Create(ctx, ivan))

	got, err := f.svc.Search(ctx, "PETROVA")
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, maria.ID, got[0].ID)

	got, err = f.svc.Search(ctx, "")
	assert.NoError(t, err)
	assert.Len(t, got, 2, "empty query matches everyone")

	got, err = f.svc.Search(ctx, "no-such-needle")
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestServiceSummary(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	p.Name = "Maria"
	p.BirthYear = 1990
	assert.NoError(t, f.svc.Create(ctx, p))

	f.ledger.Put(appointment.Appointment{
		ID: "a1", PatientID: p.ID, IsDone: true,
		Date:       time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		PaidAmount: 120, OutstandingAmount: 40,
	})

	sum, err := f.svc.Summary(ctx, p.ID)
	assert.NoError(t, err)
	assert.Equal(t, 36, sum.Age)
	assert.False(t, sum.HasPrimaryTeeth)
	assert.True(t, sum.HasPermanentTeeth)
	assert.NotNil(t, sum.LastAppointment)
	assert.Equal(t, "a1", sum.LastAppointment.ID)
	assert.Nil(t, sum.NextAppointment)
	assert.Equal(t, 120.0, sum.TotalPayments)
	assert.Equal(t, -40.0, sum.DifferenceAmount)
	assert.Equal(t, p.Revision(), sum.Revision)

	_, err = f.svc.Summary(ctx, "nope")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestServiceAppointments(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	p := New()
	assert.NoError(t, f.svc.Create(ctx, p))
	f.ledger.Put(appointment.Appointment{ID: "a1", PatientID: p.ID})
	f.ledger.Put(appointment.Appointment{ID: "a2", PatientID: "other"})

	got, err := f.svc.Appointments(ctx, p.ID)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)

	_, err = f.svc.Appointments(ctx, "nope")
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestServiceSaveAppointment(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	a := appointment.Appointment{ID: "a1", PatientID: "p1", PaidAmount: 40}
	assert.NoError(t, f.svc.SaveAppointment(ctx, a))

	assert.Equal(t, a, f.apptStore.saved["a1"], "write-through to storage")
	got := f.ledger.ListByPatient("p1")
	assert.Len(t, got, 1)
	assert.Equal(t, 40.0, got[0].PaidAmount)

	// Upsert replaces the ledger entry in place
	a.PaidAmount = 90
	assert.NoError(t, f.svc.SaveAppointment(ctx, a))
	assert.Len(t, f.ledger.List(), 1)
	assert.Equal(t, 90.0, f.ledger.List()[0].PaidAmount)
}

func TestServiceSaveAppointmentInvalid(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	err := f.svc.SaveAppointment(ctx, appointment.Appointment{PatientID: "p1"})
	assert.ErrorIs(t, err, ErrInvalidAppointmentData)
	err = f.svc.SaveAppointment(ctx, appointment.Appointment{ID: "a1"})
	assert.ErrorIs(t, err, ErrInvalidAppointmentData)
	assert.Empty(t, f.ledger.List())
}

func TestServiceSaveAppointmentStoreFailure(t *testing.T) {
	f := newServiceFixture()
	f.apptStore.saveErr = errors.New("boom")

	err := f.svc.SaveAppointment(context.Background(), appointment.Appointment{ID: "a1", PatientID: "p1"})
	assert.Error(t, err)
	assert.Empty(t, f.ledger.List(), "failed write-through must not touch the ledger")
}

func TestServiceDeleteAppointment(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	assert.NoError(t, f.svc.SaveAppointment(ctx, appointment.Appointment{ID: "a1", PatientID: "p1"}))
	assert.NoError(t, f.svc.DeleteAppointment(ctx, "a1"))

	assert.Empty(t, f.ledger.List())
	assert.Equal(t, []string{"a1"}, f.apptStore.deleted)
}
