package model

// Stats is the admin overview snapshot.  It is rebuilt on every request
// and never persisted.
type Stats struct {
    PendingRequests int           `json:"pending_requests"`
    ActiveCinemas   int           `json:"active_cinemas"`
    ArchivedCinemas int           `json:"archived_cinemas"`
    TotalPartners   int           `json:"total_partners"`
    Weekly          []DayActivity `json:"weekly,omitempty"`
}

// DayActivity is one point of the weekly activity chart.
type DayActivity struct {
    Day       string `json:"day"`       // short weekday label, e.g. Mon
    Requests  int    `json:"requests"`  // partner requests received that day
    Approvals int    `json:"approvals"` // requests approved that day
}
