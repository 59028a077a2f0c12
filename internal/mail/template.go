package mail

import (
	"strings"

	"crewdesk/internal/models"
)

// RenderTemplate substitutes {{name}} placeholders in the template's subject
// and body. Placeholders with no matching variable are left verbatim.
func RenderTemplate(t *models.EmailTemplate, vars map[string]string) (subject, body string) {
	if len(vars) == 0 {
		return t.Subject, t.HTMLBody
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.Subject), r.Replace(t.HTMLBody)
}

// DefaultTemplates returns the built-in templates seeded at startup.
func DefaultTemplates() []models.EmailTemplate {
	return []models.EmailTemplate{
		{
			Name:      "welcome",
			Subject:   "Welcome to CrewDesk, {{userName}}!",
			HTMLBody:  `<h2>Welcome aboard, {{userName}}!</h2><p>Your account is ready. Sign in at <a href="{{loginUrl}}">{{loginUrl}}</a> to join your first project.</p>`,
			Variables: "userName,loginUrl",
		},
		{
			Name:      "password_reset",
			Subject:   "Reset your CrewDesk password",
			HTMLBody:  `<p>Hi {{userName}},</p><p>We received a request to reset your password. <a href="{{resetUrl}}">Reset it here</a>. The link expires in one hour.</p><p>If you didn't ask for this, ignore this email.</p>`,
			Variables: "userName,resetUrl",
		},
		{
			Name:      "task_assignment",
			Subject:   "New task: {{taskTitle}}",
			HTMLBody:  `<p>Hi {{userName}},</p><p>You've been assigned <strong>{{taskTitle}}</strong> in {{projectName}}.</p><p>Due: {{dueDate}}</p><p><a href="{{taskUrl}}">Open the task</a></p>`,
			Variables: "userName,taskTitle,projectName,dueDate,taskUrl",
		},
		{
			Name:      "team_invitation",
			Subject:   "{{inviterName}} invited you to {{projectName}}",
			HTMLBody:  `<p>{{inviterName}} invited you to join <strong>{{projectName}}</strong> on CrewDesk.</p><p><a href="{{inviteUrl}}">Accept the invitation</a></p>`,
			Variables: "inviterName,projectName,inviteUrl",
		},
	}
}
