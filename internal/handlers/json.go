package handlers

import (
	"time"

	"github.com/c-moralesv/lexagenda/internal/model"
)

type appointmentJSON struct {
	ID              string `json:"id"`
	ServiceID       string `json:"service_id"`
	LawyerID        string `json:"lawyer_id"`
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email"`
	ClientPhone     string `json:"client_phone,omitempty"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Comment         string `json:"comment,omitempty"`
	Status          string `json:"status"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
	MeetingLink     string `json:"meeting_link,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func toAppointmentJSON(a model.Appointment) appointmentJSON {
	return appointmentJSON{
		ID:              a.ID,
		ServiceID:       a.ServiceID,
		LawyerID:        a.LawyerID,
		ClientName:      a.ClientName,
		ClientEmail:     a.ClientEmail,
		ClientPhone:     a.ClientPhone,
		Date:            a.Date,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
		Comment:         a.Comment,
		Status:          string(a.Status),
		CalendarEventID: a.CalendarEventID,
		MeetingLink:     a.MeetingLink,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAppointmentJSONList(appts []model.Appointment) []appointmentJSON {
	out := make([]appointmentJSON, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentJSON(a))
	}
	return out
}

type appointmentSummaryJSON struct {
	appointmentJSON
	ServiceName string `json:"service_name"`
	LawyerName  string `json:"lawyer_name"`
}

type blackoutJSON struct {
	ID        string `json:"id"`
	LawyerID  string `json:"lawyer_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Kind      string `json:"kind"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBlackoutJSON(b model.Blackout) blackoutJSON {
	return blackoutJSON{
		ID:        b.ID,
		LawyerID:  b.LawyerID,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Kind:      string(b.Kind),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}
