package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template kinds understood by every Mailer
const (
	TemplateRequestSubmitted = "request_submitted"
	TemplateRequestApproved  = "request_approved"
	TemplateRequestRejected  = "request_rejected"
	TemplateRequestCompleted = "request_completed"
)

// Payload keys
const (
	KeyItemName      = "item_name"
	KeyRequesterName = "requester_name"
	KeyReason        = "reason"
)

const layout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f4f4f4; padding: 20px;">
  <div style="max-width: 600px; margin: auto; background: #ffffff; padding: 24px; border-radius: 8px;">
    <h2 style="text-align: center;">Uniform Management System</h2>
    {{if .requester_name}}<p>Hello {{.requester_name}},</p>{{end}}
    {{template "content" .}}
    <p style="color: #888888; font-size: 12px; text-align: center;">This is an automated message. Please do not reply.</p>
  </div>
</body>
</html>`

type mailTemplate struct {
	subject string
	body    *template.Template
}

func mustTemplate(subject, content string) mailTemplate {
	t := template.Must(template.New("layout").Parse(layout))
	template.Must(t.New("content").Parse(content))
	return mailTemplate{subject: subject, body: t}
}

var templates = map[string]mailTemplate{
	TemplateRequestSubmitted: mustTemplate("Uniform Request Submitted - Uniform Management System",
		`<p style="text-align: center;">Your request for <strong>{{.item_name}}</strong> has been submitted successfully.</p>`),
	TemplateRequestApproved: mustTemplate("Uniform Request Approved - Uniform Management System",
		`<p style="text-align: center;">Your request for <strong>{{.item_name}}</strong> has been approved.</p>`),
	TemplateRequestRejected: mustTemplate("Uniform Request Rejected - Uniform Management System",
		`<p style="text-align: center;">Your request for <strong>{{.item_name}}</strong> has been rejected.</p>
{{if .reason}}<p style="text-align: center; font-weight: bold;">Reason: {{.reason}}</p>{{end}}`),
	TemplateRequestCompleted: mustTemplate("Uniform Request Completed - Uniform Management System",
		`<p style="text-align: center;">Your request for <strong>{{.item_name}}</strong> has been <strong>completed</strong>. Thank you!</p>`),
}

// Render produces the subject and HTML body of a templated email
func Render(kind string, payload map[string]string) (subject, body string, err error) {
	t, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", kind)
	}
	if payload == nil {
		payload = map[string]string{}
	}
	var buf bytes.Buffer
	if err := t.body.ExecuteTemplate(&buf, "layout", payload); err != nil {
		return "", "", fmt.Errorf("render %s: %w", kind, err)
	}
	return t.subject, buf.String(), nil
}
