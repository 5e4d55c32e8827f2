package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/clinichours"
	"github.com/clinicdesk/scheduling-engine/internal/notify"
	"github.com/clinicdesk/scheduling-engine/internal/patient"
)

type testEnv struct {
	router http.Handler
	coll   *appointment.MemCollection
	store  *appointment.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	coll := appointment.NewMemCollection()
	store := appointment.NewStore(coll)
	svc := appointment.NewService(store)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("service start failed: %v", err)
	}

	engine := notify.NewEngine(notify.NewMemState(), patient.Static{"123456789": "Dana Levi"})

	router := NewRouter(RouterConfig{
		Service: svc,
		Store:   store,
		Engine:  engine,
		Gate:    clinichours.Default(),
		Env:     "test",
		Version: "test",
		Log:     zerolog.Nop(),
	})

	return &testEnv{router: router, coll: coll, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func bookingBody(therapist string, start, end time.Time) CreateAppointmentRequest {
	return CreateAppointmentRequest{
		PatientID:   "123456789",
		TherapistID: therapist,
		Start:       start,
		End:         end,
	}
}

func apiAt(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

func TestCreateAppointment_Succeeds(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var appt appointment.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if appt.ID == "" || !appt.PendingSync || appt.Status != appointment.StatusScheduled {
		t.Errorf("unexpected created appointment: %+v", appt)
	}
}

func TestCreateAppointment_OutsideClinicHoursNeverReachesStore(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(21, 45), apiAt(22, 15)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "outside_clinic_hours" {
		t.Errorf("expected outside_clinic_hours, got %q", resp.Error)
	}
	if env.coll.Len() != 0 {
		t.Error("gate violations must be rejected before any store call")
	}
}

func TestCreateAppointment_DoubleBooking(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30))); rec.Code != http.StatusCreated {
		t.Fatalf("first booking failed: %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 15), apiAt(10, 45)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "double_booking" || resp.Details != appointment.ConflictMessage {
		t.Errorf("conflict message must reach the client verbatim, got %+v", resp)
	}

	// Same interval, different therapist: fine.
	if rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T2", apiAt(10, 15), apiAt(10, 45))); rec.Code != http.StatusCreated {
		t.Errorf("expected 201 for T2, got %d", rec.Code)
	}
}

func TestCreateAppointment_ValidationErrorNamesField(t *testing.T) {
	env := newTestEnv(t)

	body := bookingBody("T1", apiAt(10, 0), apiAt(10, 30))
	body.PatientID = ""
	rec := env.do(t, http.MethodPost, "/appointments", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
	}

	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "validation_error" || resp.Field != "patientId" {
		t.Errorf("expected validation_error on patientId, got %+v", resp)
	}
}

func TestListAppointments_ReportsDroppedRecords(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	env.coll.Put(appointment.RawRecord{ID: "junk", Data: []byte(`{broken`)})
	// The view refreshes on the next mutation.
	env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(11, 0), apiAt(11, 30)))

	rec := env.do(t, http.MethodGet, "/appointments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Dropped-Records"); got != "1" {
		t.Errorf("expected X-Dropped-Records=1, got %q", got)
	}

	var list []appointment.Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 valid appointments, got %d", len(list))
	}
}

func TestPatchAppointment_NotesOnly(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	var appt appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)

	notes := "prefers morning sessions"
	rec = env.do(t, http.MethodPatch, "/appointments/"+appt.ID, PatchAppointmentRequest{Notes: &notes})
	if rec.Code != http.StatusOK {
		t.Fatalf("notes-only patch must never conflict: %d %s", rec.Code, rec.Body)
	}
}

func TestPatchAppointment_MoveOutsideHoursRejectedAtGate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	var appt appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)

	// Resize to spill past closing; only the end is patched, the start comes
	// from the stored record.
	end := apiAt(22, 15)
	start := apiAt(21, 45)
	rec = env.do(t, http.MethodPatch, "/appointments/"+appt.ID, PatchAppointmentRequest{Start: &start, End: &end})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body)
	}

	// Stored record untouched.
	all, _, _ := env.store.ListAll(context.Background())
	if len(all) != 1 || !all[0].Start.Equal(apiAt(10, 0)) {
		t.Error("gate rejection must leave the stored record untouched")
	}
}

func TestPatchAppointment_UnknownID(t *testing.T) {
	env := newTestEnv(t)

	notes := "x"
	rec := env.do(t, http.MethodPatch, "/appointments/nope", PatchAppointmentRequest{Notes: &notes})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteAppointment_Idempotent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	var appt appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)

	if rec := env.do(t, http.MethodDelete, "/appointments/"+appt.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodDelete, "/appointments/"+appt.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("repeated delete must stay 204, got %d", rec.Code)
	}
}

func TestReplaceAppointments_RoundTrip(t *testing.T) {
	env := newTestEnv(t)

	list := []appointment.Appointment{
		{
			ID: "b", PatientID: "123456789", TherapistID: "T1",
			Start: apiAt(11, 0), End: apiAt(11, 30), Status: appointment.StatusScheduled,
			CreatedAt: apiAt(8, 0), UpdatedAt: apiAt(8, 0),
		},
		{
			ID: "a", PatientID: "123456789", TherapistID: "T1",
			Start: apiAt(9, 0), End: apiAt(9, 30), Status: appointment.StatusScheduled,
			CreatedAt: apiAt(8, 0), UpdatedAt: apiAt(8, 0),
		},
	}

	rec := env.do(t, http.MethodPut, "/appointments", list)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var sorted []appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &sorted)
	if len(sorted) != 2 || sorted[0].ID != "a" {
		t.Errorf("expected the returned list sorted by start, got %+v", sorted)
	}
}

func TestNotificationFlow_PollFeedDismiss(t *testing.T) {
	env := newTestEnv(t)

	// Baseline for T1 before anything exists.
	if rec := env.do(t, http.MethodPost, "/notifications/poll?therapist_id=T1", nil); rec.Code != http.StatusOK {
		t.Fatalf("poll failed: %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))

	rec := env.do(t, http.MethodPost, "/notifications/poll?therapist_id=T1", nil)
	var emitted []notify.Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &emitted)
	if len(emitted) != 1 || emitted[0].Type != notify.TypeSuccess {
		t.Fatalf("expected one created notification, got %+v", emitted)
	}

	// Idempotent second poll.
	rec = env.do(t, http.MethodPost, "/notifications/poll?therapist_id=T1", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &emitted)
	if len(emitted) != 0 {
		t.Fatalf("second poll with unchanged data must emit nothing, got %+v", emitted)
	}

	rec = env.do(t, http.MethodGet, "/notifications?therapist_id=T1", nil)
	var feed []notify.Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &feed)
	if len(feed) != 1 {
		t.Fatalf("expected the created notification in the feed, got %d", len(feed))
	}

	path := fmt.Sprintf("/notifications/%s/dismiss?therapist_id=T1", feed[0].ID)
	if rec := env.do(t, http.MethodPost, path, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("dismiss failed: %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/notifications?therapist_id=T1", nil)
	_ = json.Unmarshal(rec.Body.Bytes(), &feed)
	if len(feed) != 0 {
		t.Errorf("dismissed notification must leave the feed, got %d", len(feed))
	}
}

func TestNotificationFeed_AdminIsAlwaysEmpty(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/appointments", bookingBody("T1", apiAt(10, 0), apiAt(10, 30)))
	env.do(t, http.MethodPost, "/notifications/poll", nil)

	rec := env.do(t, http.MethodGet, "/notifications", nil)
	var feed []notify.Notification
	_ = json.Unmarshal(rec.Body.Bytes(), &feed)
	if len(feed) != 0 {
		t.Errorf("admins must not accumulate a persisted feed, got %d", len(feed))
	}
}
