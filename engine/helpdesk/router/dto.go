package router

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Query string `json:"query" example:"How does the exchange program work?"`
}

// AskAgentRequest is the body of the legacy POST /ask-agent. Either key is
// accepted; question wins when both are set.
type AskAgentRequest struct {
	Question string `json:"question"`
	Query    string `json:"query"`
}

// AnswerResponse carries the normalized answer text.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// EscalateRequest is the body of POST /api/escalate.
type EscalateRequest struct {
	Query     string `json:"query"      example:"How do I apply for the exchange program?"`
	Name      string `json:"name"       example:"Mario"`
	Surname   string `json:"surname"    example:"Rossi"`
	StudentID string `json:"student_id" example:"123456"`
	Email     string `json:"email"      example:"mario.rossi@studenti.example.edu"`
	RAGAnswer string `json:"rag_answer"`
}
