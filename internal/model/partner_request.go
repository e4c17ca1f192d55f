package model

import (
    "fmt"
    "strings"
    "time"
)

// RequestStatus is the review state of a partner request.  The dashboard
// treats it as a display value; only the admin decision endpoints move a
// request out of pending.
type RequestStatus string

const (
    StatusPending  RequestStatus = "pending"
    StatusApproved RequestStatus = "approved"
    StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s RequestStatus) Valid() bool {
    switch s {
    case StatusPending, StatusApproved, StatusRejected:
        return true
    }
    return false
}

// ParseRequestStatus accepts a status in any letter case.
func ParseRequestStatus(raw string) (RequestStatus, error) {
    s := RequestStatus(strings.ToLower(strings.TrimSpace(raw)))
    if !s.Valid() {
        return "", fmt.Errorf("unknown request status %q", raw)
    }
    return s, nil
}

// Activity is a partner request as shown in the admin "recent activity"
// list.  It corresponds to a row in the `partner_requests` table.
//
// Fields:
//  ID           – primary key identifier.
//  CinemaName   – name of the cinema applying to join.
//  City         – city or region of the cinema.
//  ContactEmail – address the partner can be reached at.
//  Status       – pending, approved or rejected.
//  CreatedAt    – submission time.
//  DecidedAt    – review time, nil while pending.
//  DecidedBy    – admin users.id that reviewed it, nil while pending.
type Activity struct {
    ID           uint64        `json:"id"`                   // partner_requests.id
    CinemaName   string        `json:"cinema_name"`          // partner_requests.cinema_name
    City         string        `json:"city"`                 // partner_requests.city
    ContactEmail string        `json:"contact_email"`        // partner_requests.contact_email
    Status       RequestStatus `json:"status"`               // partner_requests.status
    CreatedAt    time.Time     `json:"created_at"`           // partner_requests.created_at
    DecidedAt    *time.Time    `json:"decided_at,omitempty"` // partner_requests.decided_at
    DecidedBy    *uint64       `json:"-"`                    // partner_requests.decided_by
}
