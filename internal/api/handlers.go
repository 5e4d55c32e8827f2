package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/scheduling-engine/internal/appointment"
	"github.com/clinicdesk/scheduling-engine/internal/clinichours"
	"github.com/clinicdesk/scheduling-engine/internal/notify"
)

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Loading() {
			writeError(w, http.StatusServiceUnavailable, "loading", "initial load in progress, retry shortly")
			return
		}

		w.Header().Set("X-Dropped-Records", strconv.Itoa(svc.DroppedRecords()))
		writeJSON(w, http.StatusOK, svc.Appointments())
	}
}

func createAppointmentHandler(svc *appointment.Service, gate clinichours.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// Clinic hours are presentation policy: violations never reach the
		// store.
		if err := gate.Check(req.Start, req.End); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "outside_clinic_hours", err.Error())
			return
		}

		appt, err := svc.Add(r.Context(), appointment.CreateInput{
			PatientID:   req.PatientID,
			TherapistID: req.TherapistID,
			Start:       req.Start,
			End:         req.End,
			Status:      appointment.Status(req.Status),
			Notes:       req.Notes,
		})
		if err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func patchAppointmentHandler(svc *appointment.Service, store *appointment.Store, gate clinichours.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req PatchAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		// Moves and resizes are gated on the resulting interval, which needs
		// the stored record when the patch carries only one endpoint.
		if req.Start != nil || req.End != nil {
			all, _, err := store.ListAll(r.Context())
			if err != nil {
				handleStoreError(w, err)
				return
			}
			var cur *appointment.Appointment
			for i := range all {
				if all[i].ID == id {
					cur = &all[i]
					break
				}
			}
			if cur == nil {
				writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with this id")
				return
			}

			start, end := cur.Start, cur.End
			if req.Start != nil {
				start = *req.Start
			}
			if req.End != nil {
				end = *req.End
			}
			if err := gate.Check(start, end); err != nil {
				writeError(w, http.StatusUnprocessableEntity, "outside_clinic_hours", err.Error())
				return
			}
		}

		patch := appointment.Patch{
			PatientID:   req.PatientID,
			TherapistID: req.TherapistID,
			Start:       req.Start,
			End:         req.End,
			Notes:       req.Notes,
		}
		if req.Status != nil {
			status := appointment.Status(*req.Status)
			patch.Status = &status
		}

		appt, err := svc.Update(r.Context(), id, patch)
		if err != nil {
			handleStoreError(w, err)
			return
		}
		if appt == nil {
			writeError(w, http.StatusNotFound, "appointment_not_found", "no appointment with this id")
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func deleteAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func replaceAppointmentsHandler(svc *appointment.Service, store *appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var list []appointment.Appointment
		if err := json.NewDecoder(r.Body).Decode(&list); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		sorted, err := store.ReplaceAll(r.Context(), list)
		if err != nil {
			handleStoreError(w, err)
			return
		}

		if err := svc.Refresh(r.Context()); err != nil {
			handleStoreError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sorted)
	}
}

func feedNotificationsHandler(engine *notify.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := engine.Feed(r.Context(), viewerScope(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func pollNotificationsHandler(engine *notify.Engine, store *appointment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, _, err := store.ListAll(r.Context())
		if err != nil {
			handleStoreError(w, err)
			return
		}

		emitted, err := engine.ComputeAndStore(r.Context(), viewerScope(r), appts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if emitted == nil {
			emitted = []notify.Notification{}
		}
		writeJSON(w, http.StatusOK, emitted)
	}
}

func dismissNotificationHandler(engine *notify.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "invalid_notification_id", "id is required")
			return
		}

		if err := engine.Dismiss(r.Context(), viewerScope(r), id); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// viewerScope reads the explicit viewer parameter: a therapist id, or the
// admin scope when absent.
func viewerScope(r *http.Request) notify.Scope {
	if id := r.URL.Query().Get("therapist_id"); id != "" {
		return notify.TherapistScope(id)
	}
	return notify.AdminScope()
}

func handleStoreError(w http.ResponseWriter, err error) {
	var verr *appointment.ValidationError
	var cerr *appointment.ConflictError
	var perr *appointment.PersistenceError

	switch {
	case errors.As(err, &verr):
		writeFieldError(w, http.StatusBadRequest, "validation_error", verr.Field, verr.Message)
	case errors.As(err, &cerr):
		// The exact wording reaches the user so they can pick another time.
		writeError(w, http.StatusConflict, "double_booking", cerr.Error())
	case errors.As(err, &perr):
		writeError(w, http.StatusInternalServerError, "storage_error", perr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
