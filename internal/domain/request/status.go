package request

import "strings"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusExpired  Status = "expired"
)

// Display carries everything a client needs to render a status.
type Display struct {
	Label string `json:"label"`
	Badge string `json:"badge"`
	Tone  string `json:"tone"`
	Title string `json:"title"`
}

var displays = map[Status]Display{
	StatusPending:  {Label: "Pending", Badge: "yellow", Tone: "info", Title: "Request Pending"},
	StatusApproved: {Label: "Active", Badge: "green", Tone: "success", Title: "Request Approved"},
	StatusDenied:   {Label: "Denied", Badge: "red", Tone: "error", Title: "Request Denied"},
	StatusExpired:  {Label: "Expired", Badge: "gray", Tone: "warning", Title: "Request Expired"},
}

func (s Status) Valid() bool {
	_, ok := displays[s]
	return ok
}

func (s Status) Display() Display {
	if d, ok := displays[s]; ok {
		return d
	}
	return Display{Label: string(s), Badge: "gray", Tone: "info", Title: "Request Updated"}
}

// Terminal statuses are the ones a status-change notification is raised for.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied || s == StatusExpired
}

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}
