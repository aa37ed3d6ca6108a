package api

// ListEventsForgeRequest binds query parameters for GET /events.
type ListEventsForgeRequest struct {
	Gateway string `description:"Filter by gateway (stripe, paymob, paytabs, paddle)" query:"gateway"`
	Limit   int    `description:"Maximum records (default 100)"                        query:"limit"`
}

// GetEventForgeRequest binds the path for GET /events/:gateway/:eventId.
type GetEventForgeRequest struct {
	Gateway string `description:"Payment gateway"           path:"gateway"`
	EventID string `description:"Gateway-assigned event id" path:"eventId"`
}

// StatsForgeRequest binds query parameters for GET /events/stats.
type StatsForgeRequest struct {
	Gateway string `description:"Filter by gateway"              query:"gateway"`
	Hours   int    `description:"Trailing window in hours (default 24)" query:"hours"`
}

// HealthForgeRequest is empty; GET /healthz has no parameters.
type HealthForgeRequest struct{}

// HealthForgeResponse is the response for GET /healthz.
type HealthForgeResponse struct {
	Status string `json:"status"`
}
