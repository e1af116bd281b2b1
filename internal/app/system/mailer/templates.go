// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Welcome                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// WelcomeData holds data for the welcome email sent when a membership
// application is approved. TempPassword is optional; when set, the
// email carries the initial credentials. Notes are reviewer-supplied
// and embedded verbatim (after sanitization at the review boundary).
type WelcomeData struct {
	SiteName     string
	FullName     string
	SignInLink   string
	TempPassword string
	Notes        string
}

// BuildWelcomeEmail creates the welcome email with HTML and text bodies.
func BuildWelcomeEmail(data WelcomeData) Email {
	return Email{
		Subject:  fmt.Sprintf("Welcome to %s", data.SiteName),
		TextBody: buildWelcomeText(data),
		HTMLBody: execTemplate("welcome", welcomeHTMLTemplate, data),
	}
}

func buildWelcomeText(data WelcomeData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\nYour %s membership has been approved.\n\n", data.FullName, data.SiteName)
	if data.Notes != "" {
		fmt.Fprintf(&buf, "Reviewer notes:\n%s\n\n", data.Notes)
	}
	if data.TempPassword != "" {
		fmt.Fprintf(&buf, "Your temporary password is: %s\nPlease change it after your first sign-in.\n\n", data.TempPassword)
	}
	fmt.Fprintf(&buf, "Sign in here: %s\n", data.SignInLink)
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password reset                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// PasswordResetData holds data for the reset email.
type PasswordResetData struct {
	SiteName  string
	ResetLink string
	ExpiresIn string // e.g. "30 minutes"
}

// BuildPasswordResetEmail creates the password-reset email.
func BuildPasswordResetEmail(data PasswordResetData) Email {
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildPasswordResetText(data),
		HTMLBody: execTemplate("password_reset", passwordResetHTMLTemplate, data),
	}
}

func buildPasswordResetText(data PasswordResetData) string {
	var buf bytes.Buffer
	buf.WriteString("We received a request to reset your password.\n\n")
	buf.WriteString("Reset it here:\n" + data.ResetLink + "\n\n")
	fmt.Fprintf(&buf, "This link expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not request a reset, you can safely ignore this email.\n")
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Application decision                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// DecisionData holds data for application decision emails. Notes are
// reviewer-supplied and embedded verbatim (after sanitization at the
// review boundary).
type DecisionData struct {
	SiteName string
	FullName string
	Subject  string // what was applied for, e.g. "Berlin Hub membership"
	Approved bool
	Notes    string
}

// BuildDecisionEmail creates an approval or denial email for a
// reviewed application.
func BuildDecisionEmail(data DecisionData) Email {
	verdict := "approved"
	if !data.Approved {
		verdict = "declined"
	}
	return Email{
		Subject:  fmt.Sprintf("Your %s application was %s", data.Subject, verdict),
		TextBody: buildDecisionText(data, verdict),
		HTMLBody: execTemplate("decision", decisionHTMLTemplate, struct {
			DecisionData
			Verdict string
		}{data, verdict}),
	}
}

func buildDecisionText(data DecisionData, verdict string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hi %s,\n\nYour %s application was %s.\n", data.FullName, data.Subject, verdict)
	if data.Notes != "" {
		fmt.Fprintf(&buf, "\nReviewer notes:\n%s\n", data.Notes)
	}
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Report access                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ReportAccessData holds data for technical-report access decision
// emails. AccessLink and ExpiresIn are set on grants; Reason is the
// reviewer-supplied denial reason.
type ReportAccessData struct {
	SiteName    string
	FullName    string
	ReportTitle string
	Granted     bool
	AccessLink  string
	ExpiresIn   string // e.g. "30 days"
	Reason      string
}

// BuildReportAccessEmail creates the grant or denial email for a
// report access request.
func BuildReportAccessEmail(data ReportAccessData) Email {
	verdict := "granted"
	if !data.Granted {
		verdict = "denied"
	}
	return Email{
		Subject:  fmt.Sprintf("Access to %q %s", data.ReportTitle, verdict),
		TextBody: buildReportAccessText(data),
		HTMLBody: execTemplate("report_access", reportAccessHTMLTemplate, struct {
			ReportAccessData
			Verdict string
		}{data, verdict}),
	}
}

func buildReportAccessText(data ReportAccessData) string {
	var buf bytes.Buffer
	if data.Granted {
		fmt.Fprintf(&buf, "Hi %s,\n\nYour request to access %q has been granted.\n\n", data.FullName, data.ReportTitle)
		fmt.Fprintf(&buf, "Read it here:\n%s\n\nThis link expires in %s.\n", data.AccessLink, data.ExpiresIn)
		return buf.String()
	}
	fmt.Fprintf(&buf, "Hi %s,\n\nYour request to access %q has been denied.\n", data.FullName, data.ReportTitle)
	if data.Reason != "" {
		fmt.Fprintf(&buf, "\nReason:\n%s\n", data.Reason)
	}
	return buf.String()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template plumbing                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func execTemplate(name, text string, data any) string {
	tmpl := template.Must(template.New(name).Parse(text))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const emailShellOpen = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,Arial,sans-serif;background-color:#f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color:#f3f4f6;">
    <tr><td align="center" style="padding:40px 20px;">
      <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width:480px;background-color:#ffffff;border-radius:8px;">
        <tr><td style="padding:32px;">`

const emailShellClose = `</td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const welcomeHTMLTemplate = emailShellOpen + `
<h1 style="margin:0 0 16px;font-size:22px;color:#1f2937;">Welcome to {{.SiteName}}</h1>
<p style="font-size:15px;color:#374151;">Hi {{.FullName}}, your membership has been approved.</p>
{{if .Notes}}<p style="font-size:14px;color:#6b7280;border-left:3px solid #e5e7eb;padding-left:12px;">{{.Notes}}</p>{{end}}
{{if .TempPassword}}<p style="font-size:15px;color:#374151;">Your temporary password is
<code style="background:#f3f4f6;padding:2px 6px;border-radius:4px;">{{.TempPassword}}</code>.
Please change it after your first sign-in.</p>{{end}}
<p><a href="{{.SignInLink}}" style="display:inline-block;padding:12px 28px;background-color:#4f46e5;color:#ffffff;text-decoration:none;border-radius:6px;">Sign in</a></p>
` + emailShellClose

const passwordResetHTMLTemplate = emailShellOpen + `
<h1 style="margin:0 0 16px;font-size:22px;color:#1f2937;">Password reset</h1>
<p style="font-size:15px;color:#374151;">We received a request to reset your {{.SiteName}} password.</p>
<p><a href="{{.ResetLink}}" style="display:inline-block;padding:12px 28px;background-color:#4f46e5;color:#ffffff;text-decoration:none;border-radius:6px;">Reset password</a></p>
<p style="font-size:13px;color:#9ca3af;">This link expires in {{.ExpiresIn}}. If you did not request a reset, you can safely ignore this email.</p>
` + emailShellClose

const reportAccessHTMLTemplate = emailShellOpen + `
<h1 style="margin:0 0 16px;font-size:22px;color:#1f2937;">Report access {{.Verdict}}</h1>
<p style="font-size:15px;color:#374151;">Hi {{.FullName}}, your request to access &ldquo;{{.ReportTitle}}&rdquo; was {{.Verdict}}.</p>
{{if .Granted}}<p><a href="{{.AccessLink}}" style="display:inline-block;padding:12px 28px;background-color:#4f46e5;color:#ffffff;text-decoration:none;border-radius:6px;">Read the report</a></p>
<p style="font-size:13px;color:#9ca3af;">This link expires in {{.ExpiresIn}}.</p>
{{else}}{{if .Reason}}<p style="font-size:14px;color:#6b7280;border-left:3px solid #e5e7eb;padding-left:12px;">{{.Reason}}</p>{{end}}{{end}}
` + emailShellClose

const decisionHTMLTemplate = emailShellOpen + `
<h1 style="margin:0 0 16px;font-size:22px;color:#1f2937;">Application {{.Verdict}}</h1>
<p style="font-size:15px;color:#374151;">Hi {{.FullName}}, your {{.Subject}} application was {{.Verdict}}.</p>
{{if .Notes}}<p style="font-size:14px;color:#6b7280;border-left:3px solid #e5e7eb;padding-left:12px;">{{.Notes}}</p>{{end}}
` + emailShellClose
