package dto

// PositionResponse is a visitor's place in line
type PositionResponse struct {
	Ticket           *TicketResponse `json:"ticket"`
	Ahead            int             `json:"ahead"`
	UpNext           bool            `json:"up_next"`
	EstimatedMinutes int             `json:"estimated_minutes"`
	EstimatedWait    string          `json:"estimated_wait,omitempty"`
}

// NowServingResponse lists the next waiting tickets
type NowServingResponse struct {
	EventID string            `json:"event_id"`
	Tickets []*TicketResponse `json:"tickets"`
	Waiting int               `json:"waiting"`
}

// DashboardResponse is the admin summary of an event queue
type DashboardResponse struct {
	EventID             string `json:"event_id"`
	EventName           string `json:"event_name"`
	Waiting             int    `json:"waiting"`
	Done                int    `json:"done"`
	Canceled            int    `json:"canceled"`
	Total               int    `json:"total"`
	NextNumber          *int64 `json:"next_number"`
	LastIssuedNumber    int64  `json:"last_issued_number"`
	AvgMinutesPerTicket int    `json:"avg_minutes_per_ticket"`
	EstimatedClearTime  string `json:"estimated_clear_time"`
}

// StreamMessage is one server-sent event payload
type StreamMessage struct {
	Type       string              `json:"type"`
	TicketID   string              `json:"ticket_id,omitempty"`
	NowServing *NowServingResponse `json:"now_serving"`
}
