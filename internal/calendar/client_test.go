package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookClientCreateEvent(t *testing.T) {
	var gotAuth string
	var gotReq EventRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/events" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Event{ID: "evt-42", MeetLink: "https://meet.example.com/xyz"})
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, "secret-token")
	ev, err := client.CreateEvent(context.Background(), EventRequest{
		Summary:         "Initial consultation: Ana Torres",
		Date:            "2025-06-04",
		StartTime:       "12:30",
		DurationMinutes: 30,
		Attendees:       []string{"ana@example.com"},
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID != "evt-42" || ev.MeetLink != "https://meet.example.com/xyz" {
		t.Fatalf("event = %+v", ev)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if gotReq.Date != "2025-06-04" || gotReq.StartTime != "12:30" {
		t.Errorf("request payload = %+v", gotReq)
	}
}

func TestWebhookClientCreateEventServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, "")
	if _, err := client.CreateEvent(context.Background(), EventRequest{}); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestWebhookClientDeleteEvent(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewWebhookClient(srv.URL, "")
	if err := client.DeleteEvent(context.Background(), "evt-42"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if gotPath != "/events/evt-42" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestWebhookClientDeleteEventGone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// Deleting an event that is already gone is not an error.
	client := NewWebhookClient(srv.URL, "")
	if err := client.DeleteEvent(context.Background(), "evt-42"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
}
