package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/doctorgo/doctorgo/internal/doctor"
	"github.com/doctorgo/doctorgo/internal/recommend"
	"github.com/doctorgo/doctorgo/internal/slot"
)

func listDoctorsHandler(doctors doctor.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := searchOptionsFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
			return
		}

		roster, err := doctors.ListDoctors(r.Context())
		if err != nil {
			writeInternalError(w, err)
			return
		}

		ranked := doctor.Search(roster, opts)

		resp := make([]DoctorResponse, 0, len(ranked))
		for _, d := range ranked {
			resp = append(resp, doctorResponse(d, nil))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getDoctorHandler(doctors doctor.Repository, slots slot.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		doc, err := doctors.GetDoctorByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, doctor.ErrDoctorNotFound) {
				writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
				return
			}
			writeInternalError(w, err)
			return
		}

		// Profile views show the rolling 2-day calendar.
		now := time.Now()
		from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		calendar, err := slots.ListByDoctor(r.Context(), id, from, from.AddDate(0, 0, slot.WindowDays))
		if err != nil {
			writeInternalError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, doctorResponse(doctor.Ranked{Doctor: *doc, DistanceKm: -1}, calendar))
	}
}

func recommendationHandler(doctors doctor.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		roster, err := doctors.ListDoctors(r.Context())
		if err != nil {
			writeInternalError(w, err)
			return
		}

		recs := recommend.Recommend(query, roster)
		if recs == nil {
			recs = []recommend.Recommendation{}
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func searchOptionsFromQuery(r *http.Request) (doctor.SearchOptions, error) {
	q := r.URL.Query()

	opts := doctor.SearchOptions{
		Query:     q.Get("q"),
		Specialty: q.Get("specialty"),
		Sort:      doctor.SortOrder(q.Get("sort")),
	}

	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr != "" || lngStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return opts, errors.New("lat must be a number")
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return opts, errors.New("lng must be a number")
		}
		opts.Origin = &doctor.Origin{Lat: lat, Lng: lng}
	}

	if maxKm := q.Get("max_km"); maxKm != "" {
		v, err := strconv.ParseFloat(maxKm, 64)
		if err != nil || v < 0 {
			return opts, errors.New("max_km must be a non-negative number")
		}
		if opts.Origin == nil {
			return opts, errors.New("max_km requires lat and lng")
		}
		opts.MaxDistanceKm = v
	}

	return opts, nil
}

func doctorResponse(d doctor.Ranked, calendar []slot.Slot) DoctorResponse {
	resp := DoctorResponse{
		ID:            d.ID,
		Name:          d.Name,
		Specialty:     d.Specialty,
		Rating:        d.Rating,
		Cost:          d.Cost,
		ClinicName:    d.ClinicName,
		ClinicAddress: d.ClinicAddress,
		Lat:           d.Lat,
		Lng:           d.Lng,
		QueueLength:   d.QueueLength,
	}
	if d.DistanceKm >= 0 {
		dist := d.DistanceKm
		resp.DistanceKm = &dist
	}
	for _, s := range calendar {
		resp.Slots = append(resp.Slots, SlotResponse{Time: s.Time, Available: s.Available})
	}
	return resp
}
