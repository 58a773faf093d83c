package core

import "net/http"

// ProblemDocument models the error envelope returned by the HTTP API.
type ProblemDocument struct {
	Status int    `json:"status"            example:"400"`
	Error  string `json:"error"             example:"Bad Request"`
	Detail string `json:"detail,omitempty"  example:"Query cannot be empty"`
	Code   string `json:"code,omitempty"    example:"BAD_REQUEST"`
	Type   string `json:"type,omitempty"    example:"about:blank"`
}

// Problem captures the information returned in an RFC 7807 error response.
type Problem struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string
	Extras   map[string]any
}

// NormalizeProblem ensures the provided problem includes canonical defaults.
func NormalizeProblem(problem *Problem) *Problem {
	if problem == nil {
		problem = &Problem{}
	}
	if problem.Status == 0 {
		problem.Status = http.StatusInternalServerError
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	return problem
}

// BuildProblemBody assembles the serialized representation of the problem.
// The detail is written under both "detail" and "details" so browser clients
// written against either key keep working.
func BuildProblemBody(problem *Problem) map[string]any {
	body := map[string]any{
		"status": problem.Status,
		"error":  problem.Title,
		"type":   problem.Type,
	}
	if problem.Detail != "" {
		body["detail"] = problem.Detail
		body["details"] = problem.Detail
	}
	if problem.Instance != "" {
		body["instance"] = problem.Instance
	}
	extras := make(map[string]any, len(problem.Extras))
	for key, value := range problem.Extras {
		if !isReservedProblemKey(key) {
			extras[key] = value
		}
	}
	return CopyMaps(body, extras)
}

func isReservedProblemKey(key string) bool {
	switch key {
	case "status", "error", "detail", "details", "type", "instance":
		return true
	default:
		return false
	}
}
