package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doctorgo/doctorgo/internal/appointment"
	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/payment"
	"github.com/doctorgo/doctorgo/internal/queue"
	redisclient "github.com/doctorgo/doctorgo/internal/redis"
	"github.com/doctorgo/doctorgo/internal/slot"
)

const testSecret = "test-secret"

// memStore backs every repository interface the router needs, guarded
// by one mutex so handler tests can run without Postgres.
type memStore struct {
	mu           sync.Mutex
	doctors      []doctor.Doctor
	slots        map[slotKey]slot.Slot
	entries      []queue.Entry
	queueLengths map[uuid.UUID]int
	appointments []appointment.Appointment
}

type slotKey struct {
	doctorID uuid.UUID
	unix     int64
}

func newMemStore() *memStore {
	return &memStore{
		slots:        make(map[slotKey]slot.Slot),
		queueLengths: make(map[uuid.UUID]int),
	}
}

func (s *memStore) addDoctor(name, specialty string, rating float64) doctor.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := doctor.Doctor{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Name:      name,
		Specialty: specialty,
		Rating:    rating,
		Cost:      60,
	}
	s.doctors = append(s.doctors, d)
	return d
}

func (s *memStore) openSlot(doctorID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := slotKey{doctorID, at.Unix()}
	s.slots[k] = slot.Slot{DoctorID: doctorID, Time: at, Available: true}
}

func (s *memStore) GetDoctorByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			d := s.doctors[i]
			d.QueueLength = s.queueLengths[id]
			return &d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (s *memStore) GetDoctorByUserID(_ context.Context, userID uuid.UUID) (*doctor.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].UserID == userID {
			d := s.doctors[i]
			return &d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (s *memStore) ListDoctors(_ context.Context) ([]doctor.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]doctor.Doctor, len(s.doctors))
	copy(out, s.doctors)
	for i := range out {
		out[i].QueueLength = s.queueLengths[out[i].ID]
	}
	return out, nil
}

func (s *memStore) InsertSlots(_ context.Context, slots []slot.Slot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted := 0
	for _, sl := range slots {
		k := slotKey{sl.DoctorID, sl.Time.Unix()}
		if _, ok := s.slots[k]; ok {
			continue
		}
		s.slots[k] = sl
		inserted++
	}
	return inserted, nil
}

func (s *memStore) ListByDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]slot.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []slot.Slot
	for _, sl := range s.slots {
		if sl.DoctorID != doctorID {
			continue
		}
		if sl.Time.Before(from) || !sl.Time.Before(to) {
			continue
		}
		out = append(out, sl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s *memStore) InsertWaiting(_ context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID) (*queue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.doctors {
		if s.doctors[i].ID == doctorID {
			found = true
		}
	}
	if !found {
		return nil, doctor.ErrDoctorNotFound
	}
	s.queueLengths[doctorID]++
	e := queue.Entry{
		ID:          uuid.New(),
		PatientID:   patientID,
		PatientName: patientName,
		DoctorID:    doctorID,
		Status:      queue.StatusWaiting,
		Position:    s.queueLengths[doctorID],
		JoinedAt:    time.Now(),
	}
	s.entries = append(s.entries, e)
	return &e, nil
}

func (s *memStore) ListWaiting(_ context.Context, doctorID uuid.UUID) ([]queue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []queue.Entry
	for _, e := range s.entries {
		if e.DoctorID == doctorID && e.Status == queue.StatusWaiting {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) InviteOldestWaiting(_ context.Context, doctorID uuid.UUID) (*queue.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].DoctorID == doctorID && s.entries[i].Status == queue.StatusWaiting {
			s.entries[i].Status = queue.StatusInvited
			if s.queueLengths[doctorID] > 0 {
				s.queueLengths[doctorID]--
			}
			e := s.entries[i]
			return &e, nil
		}
	}
	return nil, queue.ErrNoWaitingEntries
}

func (s *memStore) CountWaiting(_ context.Context, doctorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.DoctorID == doctorID && e.Status == queue.StatusWaiting {
			n++
		}
	}
	return n, nil
}

func (s *memStore) QueueLength(_ context.Context, doctorID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueLengths[doctorID], nil
}

func (s *memStore) SetQueueLength(_ context.Context, doctorID uuid.UUID, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueLengths[doctorID] = n
	return nil
}

func (s *memStore) CreateScheduled(_ context.Context, patientID uuid.UUID, patientName string, doctorID uuid.UUID, doctorName string, at time.Time) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := slotKey{doctorID, at.Unix()}
	sl, ok := s.slots[k]
	if !ok || !sl.Available {
		return nil, appointment.ErrSlotUnavailable
	}
	sl.Available = false
	s.slots[k] = sl
	a := appointment.Appointment{
		ID:          uuid.New(),
		PatientID:   patientID,
		PatientName: patientName,
		DoctorID:    doctorID,
		DoctorName:  doctorName,
		Time:        at,
		Status:      appointment.StatusScheduled,
	}
	s.appointments = append(s.appointments, a)
	return &a, nil
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			a := s.appointments[i]
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

func (s *memStore) ListByPatient(_ context.Context, patientID uuid.UUID) ([]appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range s.appointments {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s *memStore) ListByDoctorID(_ context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []appointment.Appointment
	for _, a := range s.appointments {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, id uuid.UUID, status appointment.Status) (*appointment.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			s.appointments[i].Status = status
			a := s.appointments[i]
			return &a, nil
		}
	}
	return nil, appointment.ErrAppointmentNotFound
}

type testServer struct {
	store   *memStore
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	locker := redisclient.NewRedisKeyedLocker(rdb, 5*time.Second, 5*time.Second)
	store := newMemStore()

	queueSvc := queue.NewService(store, store, locker, nil, nil)
	apptSvc := appointment.NewService(appointmentRepo{store}, store, locker, nil, nil)

	handler := NewRouter(RouterConfig{
		Doctors:      store,
		Slots:        store,
		Queue:        queueSvc,
		Appointments: apptSvc,
		Payments:     payment.NewProcessor(),
		AuthSecret:   testSecret,
		Env:          "test",
		Version:      "test",
	})

	return &testServer{store: store, handler: handler}
}

// appointmentRepo renames the doctor-scoped list so memStore can satisfy
// both slot.Repository and appointment.Repository, whose ListByDoctor
// signatures differ.
type appointmentRepo struct {
	*memStore
}

func (r appointmentRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]appointment.Appointment, error) {
	return r.ListByDoctorID(ctx, doctorID)
}

func (ts *testServer) do(t *testing.T, method, path string, body any, p *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if p != nil {
		token, err := auth.SignToken(testSecret, *p)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func patientPrincipal(name string) *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Name: name, Role: auth.RolePatient}
}

func TestListDoctors(t *testing.T) {
	ts := newTestServer(t)
	ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	ts.store.addDoctor("Dr. Okafor", doctor.SpecialtyDermatology, 4.5)

	rec := ts.do(t, http.MethodGet, "/api/doctors", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestListDoctorsRejectsBadOrigin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/doctors?lat=abc&lng=1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDoctorNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/doctors/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDoctorIncludesCalendar(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)

	at := time.Now().Add(2 * time.Hour).Truncate(time.Hour)
	ts.store.openSlot(doc.ID, at)

	rec := ts.do(t, http.MethodGet, "/api/doctors/"+doc.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Slots, 1)
	assert.True(t, resp.Slots[0].Available)
}

func TestRecommendationsFallBackToGeneralPractice(t *testing.T) {
	ts := newTestServer(t)
	ts.store.addDoctor("Dr. Silva", doctor.SpecialtyGeneralPractice, 4.9)

	rec := ts.do(t, http.MethodGet, "/api/recommendation?query=", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, float64(50), resp[0]["matchScore"])
}

func TestJoinQueueRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)

	rec := ts.do(t, http.MethodPost, "/api/queue", JoinQueueRequest{DoctorID: doc.ID.String()}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJoinQueueAndList(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPost, "/api/queue", JoinQueueRequest{DoctorID: doc.ID.String()}, p)
	require.Equal(t, http.StatusCreated, rec.Code)

	var entry QueueEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, 1, entry.Position)
	assert.Equal(t, "waiting", entry.Status)

	rec = ts.do(t, http.MethodGet, "/api/queue?doctor_id="+doc.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []QueueEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestJoinQueueUnknownDoctor(t *testing.T) {
	ts := newTestServer(t)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPost, "/api/queue", JoinQueueRequest{DoctorID: uuid.NewString()}, p)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInviteNextEmptyQueue(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	secretary := &auth.Principal{ID: uuid.New(), Name: "Marta", Role: auth.RoleSecretary}

	rec := ts.do(t, http.MethodPost, "/api/queue/next", InviteNextRequest{DoctorID: doc.ID.String()}, secretary)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp["entry"])
	assert.Equal(t, "no patients in queue", resp["message"])
}

func TestInviteNextForbiddenForPatients(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPost, "/api/queue/next", InviteNextRequest{DoctorID: doc.ID.String()}, p)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateAppointment(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	p := patientPrincipal("Ana")

	at := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	ts.store.openSlot(doc.ID, at)

	req := CreateAppointmentRequest{
		DoctorID:        doc.ID.String(),
		AppointmentTime: at.Format(time.RFC3339),
	}
	rec := ts.do(t, http.MethodPost, "/api/appointments", req, p)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scheduled", resp.Status)
	assert.Equal(t, doc.Name, resp.DoctorName)

	// The slot is claimed; a second booking conflicts.
	rec = ts.do(t, http.MethodPost, "/api/appointments", req, patientPrincipal("Rui"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAppointmentValidation(t *testing.T) {
	ts := newTestServer(t)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPost, "/api/appointments", CreateAppointmentRequest{}, p)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/appointments", CreateAppointmentRequest{
		DoctorID:        uuid.NewString(),
		AppointmentTime: "tomorrow at noon",
	}, p)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	ts := newTestServer(t)
	doc := ts.store.addDoctor("Dr. Reed", doctor.SpecialtyCardiology, 4.8)
	p := patientPrincipal("Ana")

	at := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	ts.store.openSlot(doc.ID, at)

	rec := ts.do(t, http.MethodPost, "/api/appointments", CreateAppointmentRequest{
		DoctorID:        doc.ID.String(),
		AppointmentTime: at.Format(time.RFC3339),
	}, p)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// A stranger cannot touch it.
	rec = ts.do(t, http.MethodPut, "/api/appointments/"+created.ID.String(),
		UpdateAppointmentRequest{Status: "cancelled"}, patientPrincipal("Rui"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The patient can cancel their own.
	rec = ts.do(t, http.MethodPut, "/api/appointments/"+created.ID.String(),
		UpdateAppointmentRequest{Status: "cancelled"}, p)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "cancelled", updated.Status)
}

func TestUpdateAppointmentRejectsBadStatus(t *testing.T) {
	ts := newTestServer(t)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPut, "/api/appointments/"+uuid.NewString(),
		UpdateAppointmentRequest{Status: "postponed"}, p)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMockPayment(t *testing.T) {
	ts := newTestServer(t)
	p := patientPrincipal("Ana")

	rec := ts.do(t, http.MethodPost, "/api/payments/mock", PaymentRequest{
		AppointmentID: uuid.NewString(),
		Amount:        60,
	}, p)
	require.Equal(t, http.StatusOK, rec.Code)

	var receipt payment.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "card", receipt.Method)
	assert.Equal(t, float64(60), receipt.Amount)
	assert.NotEmpty(t, receipt.ReceiptNumber)
}

func TestHealthLiveness(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health/live", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}
