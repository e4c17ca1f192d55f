package model

import "time"

// CinemaStatus is the lifecycle state of a partner cinema.
type CinemaStatus string

const (
    CinemaActive   CinemaStatus = "active"   // listed to customers
    CinemaArchived CinemaStatus = "archived" // hidden, kept for history
)

// Cinema represents a partner venue listed on PopcornON.  A cinema is
// created when an admin approves a partner request and belongs to the
// partner account that submitted it.  This struct corresponds to a row
// in the `cinemas` table.
//
// Fields:
//  ID        – primary key identifier.
//  PartnerID – users.id of the partner account, zero when not linked yet.
//  Name      – display name of the cinema.
//  City      – city or region shown in listings and filters.
//  Status    – active or archived.
//  CreatedAt – timestamp when the cinema was created.
//  UpdatedAt – timestamp of last update.
type Cinema struct {
    ID        uint64       `json:"id"`         // cinemas.id
    PartnerID uint64       `json:"-"`          // cinemas.partner_id
    Name      string       `json:"name"`       // cinemas.name
    City      string       `json:"city"`       // cinemas.city
    Status    CinemaStatus `json:"status"`     // cinemas.status
    CreatedAt time.Time    `json:"created_at"` // cinemas.created_at
    UpdatedAt time.Time    `json:"-"`          // cinemas.updated_at
}
