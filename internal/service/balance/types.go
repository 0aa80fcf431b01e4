package balance

// Result reports admission-control accounting for one balance pass.
// Scheduled + Failed always equals TotalRequests; Rescheduled counts the
// subset of Scheduled that was moved off its original day.
type Result struct {
	TotalRequests int      `json:"total_requests"`
	Scheduled     int      `json:"successfully_scheduled"`
	Rescheduled   int      `json:"rescheduled"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}
