package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Event is the external calendar's reference for a confirmed
// consultation, including the generated video-meeting link.
type Event struct {
	ID       string `json:"event_id"`
	MeetLink string `json:"meet_link"`
}

type EventRequest struct {
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	Attendees       []string `json:"attendees"`
}

// Client talks to the practice's calendar bridge. Event creation and
// deletion are best-effort from the caller's point of view: a failure
// never blocks the appointment state change that triggered it.
type Client interface {
	CreateEvent(ctx context.Context, req EventRequest) (Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type WebhookClient struct {
	url   string
	token string
	http  *http.Client
}

func NewWebhookClient(url string, token string) *WebhookClient {
	return &WebhookClient{
		url:   strings.TrimRight(strings.TrimSpace(url), "/"),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *WebhookClient) CreateEvent(ctx context.Context, req EventRequest) (Event, error) {
	if c.url == "" {
		return Event{}, errors.New("calendar url not configured")
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return Event{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/events", bytes.NewReader(raw))
	if err != nil {
		return Event{}, err
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Event{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Event{}, fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}

	var ev Event
	if err := json.NewDecoder(resp.Body).Decode(&ev); err != nil {
		return Event{}, err
	}
	if ev.ID == "" {
		return Event{}, errors.New("calendar returned empty event id")
	}
	return ev, nil
}

func (c *WebhookClient) DeleteEvent(ctx context.Context, eventID string) error {
	if c.url == "" {
		return errors.New("calendar url not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url+"/events/"+eventID, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("calendar returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *WebhookClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// NoopClient is used when no calendar bridge is configured; bookings
// then carry no event reference or meeting link.
type NoopClient struct{}

func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

func (c *NoopClient) CreateEvent(_ context.Context, _ EventRequest) (Event, error) {
	return Event{}, nil
}

func (c *NoopClient) DeleteEvent(_ context.Context, _ string) error {
	return nil
}
