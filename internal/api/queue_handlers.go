package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/auth"
	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/queue"
)

func joinQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing principal")
			return
		}

		var req JoinQueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DoctorID == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor_id", "doctor_id is required")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		entry, err := svc.Join(r.Context(), principal, doctorID)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, queueEntryResponse(entry))
	}
}

func listQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorIDStr := r.URL.Query().Get("doctor_id")
		if doctorIDStr == "" {
			writeError(w, http.StatusBadRequest, "missing_doctor_id", "doctor_id query parameter is required")
			return
		}

		doctorID, err := uuid.Parse(doctorIDStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		entries, err := svc.ListWaiting(r.Context(), doctorID)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		resp := make([]QueueEntryResponse, 0, len(entries))
		for i := range entries {
			resp = append(resp, queueEntryResponse(&entries[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func inviteNextHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "missing principal")
			return
		}

		var req InviteNextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		entry, err := svc.InviteNext(r.Context(), principal, doctorID)
		if err != nil {
			handleQueueError(w, err)
			return
		}

		// An empty queue is a normal outcome, not an error.
		if entry == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"entry":   nil,
				"message": "no patients in queue",
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"entry": queueEntryResponse(entry),
		})
	}
}

func handleQueueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrMissingDoctorID):
		writeError(w, http.StatusBadRequest, "missing_doctor_id", err.Error())
	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, queue.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, queue.ErrQueueBusy):
		writeError(w, http.StatusConflict, "queue_busy", "queue is busy, please retry shortly")
	default:
		writeInternalError(w, err)
	}
}

func queueEntryResponse(e *queue.Entry) QueueEntryResponse {
	return QueueEntryResponse{
		ID:          e.ID,
		PatientID:   e.PatientID,
		PatientName: e.PatientName,
		DoctorID:    e.DoctorID,
		Status:      string(e.Status),
		Position:    e.Position,
		JoinedAt:    e.JoinedAt,
	}
}
