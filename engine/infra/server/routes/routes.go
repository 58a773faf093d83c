package routes

// Root returns the service descriptor path.
func Root() string {
	return "/"
}

// Health returns the liveness path.
func Health() string {
	return "/health"
}

// API returns the JSON API base path.
func API() string {
	return "/api"
}

// Chat returns the question answering path (e.g., "/api/chat").
func Chat() string {
	return API() + "/chat"
}

// Escalate returns the escalation draft path (e.g., "/api/escalate").
func Escalate() string {
	return API() + "/escalate"
}

// AskAgent returns the legacy question answering path kept for older clients.
func AskAgent() string {
	return "/ask-agent"
}
