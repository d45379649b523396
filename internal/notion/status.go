package notion

// Status drives the record workflow. The registration pass creates records
// at NotStarted; an external actor moves them to Processing; only the
// processing pass moves a record out of Processing, to Completed or Error.
// Terminal states have no outgoing transitions.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusError      Status = "Error"
)
