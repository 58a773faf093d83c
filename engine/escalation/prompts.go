package escalation

const (
	composerSystemPrompt = "You are an assistant that writes formal emails in English to the university helpdesk. " +
		"You must be polite, clear, and concise. " +
		"Always include the student's name, surname, and student ID (matricola)."

	emailPromptTemplate = "escalation_email"
)

const emailPromptText = `Student data:
- First name: {{ .identity.FirstName }}
- Last name: {{ .identity.LastName }}
- Student ID (matricola): {{ .identity.StudentID }}
- Email: {{ .identity.Email }}

Original student question:
{{ .question }}

Answer given by the chatbot (based on official documents):
{{ .answer }}

Write a formal email in English to the university helpdesk to ask for clarifications.

The email must:
- start with a formal greeting (e.g. "{{ .greeting }}")
- briefly explain the context
- restate the student's doubt / question
- politely ask for an answer or operational guidance
- end with a polite closing formula
- be signed with the student's name, surname, student ID, and email.

Respond in JSON with EXACTLY these keys:
- "subject": a short and clear subject line (string)
- "body": the full email text (string)
`
