package models

import (
	"strings"
	"testing"
	"time"
)

func validCreateRequest() EventCreateRequest {
	return EventCreateRequest{
		Title:        "Summer Jazz Night",
		Description:  "An evening of live jazz",
		Date:         time.Now().Add(30 * 24 * time.Hour),
		Location:     "Riverside Hall",
		Category:     CategoryConcert,
		TicketPrice:  25,
		TotalTickets: 10,
	}
}

func TestEventCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*EventCreateRequest)
		wantErr string
	}{
		{
			name:   "valid request",
			modify: func(r *EventCreateRequest) {},
		},
		{
			name:   "valid with image url",
			modify: func(r *EventCreateRequest) { r.ImageURL = "https://cdn.example.com/jazz.jpg" },
		},
		{
			name:   "free event",
			modify: func(r *EventCreateRequest) { r.TicketPrice = 0 },
		},
		{
			name:    "missing title",
			modify:  func(r *EventCreateRequest) { r.Title = "" },
			wantErr: "title is required",
		},
		{
			name:    "missing date",
			modify:  func(r *EventCreateRequest) { r.Date = time.Time{} },
			wantErr: "date is required",
		},
		{
			name:    "negative price",
			modify:  func(r *EventCreateRequest) { r.TicketPrice = -1 },
			wantErr: "ticket_price must be greater than or equal to 0",
		},
		{
			name:    "zero tickets",
			modify:  func(r *EventCreateRequest) { r.TotalTickets = 0 },
			wantErr: "total_tickets must be at least 1",
		},
		{
			name:    "unknown category",
			modify:  func(r *EventCreateRequest) { r.Category = "Opera" },
			wantErr: "category must be one of",
		},
		{
			name:    "invalid image url",
			modify:  func(r *EventCreateRequest) { r.ImageURL = "not a url" },
			wantErr: "image must be a valid URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.modify(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !IsKind(err, KindValidation) {
				t.Errorf("Validate() error kind = %v, expected validation", KindOf(err))
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, expected to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEventCreateRequest_Normalize(t *testing.T) {
	req := validCreateRequest()
	req.Title = "  Padded  "
	req.TicketPrice = 19.999

	req.Normalize()

	if req.Title != "Padded" {
		t.Errorf("Title = %q, expected %q", req.Title, "Padded")
	}
	if req.TicketPrice != 20 {
		t.Errorf("TicketPrice = %v, expected 20", req.TicketPrice)
	}
}

func TestEventUpdateRequest_Validate(t *testing.T) {
	title := "New title"
	empty := ""
	spaces := "   "
	total := 15
	zero := 0
	approved := StatusApproved
	bogus := EventStatus("archived")

	tests := []struct {
		name    string
		req     EventUpdateRequest
		wantErr bool
	}{
		{"empty patch", EventUpdateRequest{}, true},
		{"title only", EventUpdateRequest{Title: &title}, false},
		{"blank title", EventUpdateRequest{Title: &empty}, true},
		{"whitespace title", EventUpdateRequest{Title: &spaces}, true},
		{"whitespace location", EventUpdateRequest{Location: &spaces}, true},
		{"whitespace description", EventUpdateRequest{Description: &spaces}, true},
		{"cleared image", EventUpdateRequest{ImageURL: &empty}, false},
		{"total tickets", EventUpdateRequest{TotalTickets: &total}, false},
		{"zero total tickets", EventUpdateRequest{TotalTickets: &zero}, true},
		{"status only", EventUpdateRequest{Status: &approved}, false},
		{"unknown status", EventUpdateRequest{Status: &bogus}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEventUpdateRequest_Normalize(t *testing.T) {
	title := "  Summer Jam  "
	location := "\tRiverside Park\n"
	price := 19.999
	req := EventUpdateRequest{Title: &title, Location: &location, TicketPrice: &price}

	req.Normalize()
	if *req.Title != "Summer Jam" || *req.Location != "Riverside Park" {
		t.Errorf("Normalize() left title=%q location=%q", *req.Title, *req.Location)
	}
	if *req.TicketPrice != 20 {
		t.Errorf("Normalize() price = %v, expected 20", *req.TicketPrice)
	}
	if req.Description != nil {
		t.Error("Normalize() must not set unset fields")
	}
}

func TestEventUpdateRequest_ApplyTo(t *testing.T) {
	event := &Event{
		Title:            "Old",
		Location:         "Old Hall",
		TicketPrice:      10,
		TotalTickets:     10,
		RemainingTickets: 7,
		Status:           StatusApproved,
	}

	title := " New "
	price := 12.346
	total := 15
	declined := StatusDeclined
	req := EventUpdateRequest{Title: &title, TicketPrice: &price, TotalTickets: &total, Status: &declined}
	req.ApplyTo(event)

	if event.Title != "New" {
		t.Errorf("Title = %q, expected %q", event.Title, "New")
	}
	if event.Location != "Old Hall" {
		t.Errorf("Location changed unexpectedly to %q", event.Location)
	}
	if event.TicketPrice != 12.35 {
		t.Errorf("TicketPrice = %v, expected 12.35", event.TicketPrice)
	}
	if event.TotalTickets != 15 {
		t.Errorf("TotalTickets = %d, expected 15", event.TotalTickets)
	}
	if event.RemainingTickets != 7 {
		t.Errorf("RemainingTickets = %d, expected 7 (adjusted by the repository)", event.RemainingTickets)
	}
	if event.Status != StatusApproved {
		t.Errorf("Status = %q, expected status to be left alone", event.Status)
	}
}

func TestEventUpdateRequest_HasContentChanges(t *testing.T) {
	approved := StatusApproved
	location := "Hall"

	if (&EventUpdateRequest{Status: &approved}).HasContentChanges() {
		t.Error("status-only patch should not count as content change")
	}
	if !(&EventUpdateRequest{Location: &location, Status: &approved}).HasContentChanges() {
		t.Error("location patch should count as content change")
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.006, 1.01},
		{2.344, 2.34},
		{66.6666, 66.67},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundCents(tt.in); got != tt.want {
			t.Errorf("RoundCents(%v) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}
