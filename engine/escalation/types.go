package escalation

// Identity is the student on whose behalf the email is drafted. Fields are
// passed through as given.
type Identity struct {
	FirstName string `json:"name"`
	LastName  string `json:"surname"`
	StudentID string `json:"student_id"`
	Email     string `json:"email"`
}

// Draft is a ready-to-send email payload. Nothing in this service sends it.
type Draft struct {
	To      string `json:"to"`
	Cc      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Fields are the model-authored parts of a draft.
type Fields struct {
	Subject string
	Body    string
}
