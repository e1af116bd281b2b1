package mailer_test

import (
	"strings"
	"testing"

	"github.com/junctionhq/junction/internal/app/system/mailer"
)

func TestBuildWelcomeEmail_WithTempPassword(t *testing.T) {
	e := mailer.BuildWelcomeEmail(mailer.WelcomeData{
		SiteName:     "Junction",
		FullName:     "Ada Lovelace",
		SignInLink:   "https://junction.network/signin",
		TempPassword: "s3cret-temp",
	})

	if !strings.Contains(e.Subject, "Junction") {
		t.Errorf("subject missing site name: %q", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "s3cret-temp") {
			t.Error("temporary password missing from body")
		}
		if !strings.Contains(body, "https://junction.network/signin") {
			t.Error("sign-in link missing from body")
		}
	}
}

func TestBuildWelcomeEmail_EmbedsNotes(t *testing.T) {
	e := mailer.BuildWelcomeEmail(mailer.WelcomeData{
		SiteName: "Junction",
		FullName: "Ada",
		Notes:    "Your mentor is Grace.",
	})
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "Your mentor is Grace.") {
			t.Error("reviewer notes missing from body")
		}
	}
}

func TestBuildWelcomeEmail_WithoutTempPassword(t *testing.T) {
	e := mailer.BuildWelcomeEmail(mailer.WelcomeData{SiteName: "Junction", FullName: "Ada"})
	if strings.Contains(e.TextBody, "temporary password") {
		t.Error("text body mentions a temporary password that was not set")
	}
}

func TestBuildPasswordResetEmail(t *testing.T) {
	e := mailer.BuildPasswordResetEmail(mailer.PasswordResetData{
		SiteName:  "Junction",
		ResetLink: "https://junction.network/reset-password/tok123",
		ExpiresIn: "30 minutes",
	})
	if !strings.Contains(e.HTMLBody, "tok123") || !strings.Contains(e.TextBody, "tok123") {
		t.Error("reset link missing from bodies")
	}
	if !strings.Contains(e.TextBody, "30 minutes") {
		t.Error("expiry missing from text body")
	}
}

func TestBuildDecisionEmail_EmbedsNotes(t *testing.T) {
	e := mailer.BuildDecisionEmail(mailer.DecisionData{
		SiteName: "Junction",
		FullName: "Ada",
		Subject:  "Berlin Hub membership",
		Approved: true,
		Notes:    "Welcome aboard - intro call on Friday.",
	})
	if !strings.Contains(e.Subject, "approved") {
		t.Errorf("subject = %q, want approved", e.Subject)
	}
	if !strings.Contains(e.TextBody, "intro call on Friday") {
		t.Error("reviewer notes missing from text body")
	}
}

func TestBuildDecisionEmail_Rejected(t *testing.T) {
	e := mailer.BuildDecisionEmail(mailer.DecisionData{
		Subject:  "membership",
		Approved: false,
	})
	if !strings.Contains(e.Subject, "declined") {
		t.Errorf("subject = %q, want declined", e.Subject)
	}
}

func TestBuildReportAccessEmail_Granted(t *testing.T) {
	e := mailer.BuildReportAccessEmail(mailer.ReportAccessData{
		SiteName:    "Junction",
		FullName:    "Ada Lovelace",
		ReportTitle: "Field Survey 2025",
		Granted:     true,
		AccessLink:  "https://junction.network/reports/access/tok-123",
		ExpiresIn:   "30 days",
	})

	if !strings.Contains(e.Subject, "granted") || !strings.Contains(e.Subject, "Field Survey 2025") {
		t.Errorf("subject = %q, want grant notice naming the report", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "https://junction.network/reports/access/tok-123") {
			t.Error("access link missing from body")
		}
		if !strings.Contains(body, "30 days") {
			t.Error("expiry notice missing from body")
		}
	}
}

func TestBuildReportAccessEmail_Denied(t *testing.T) {
	e := mailer.BuildReportAccessEmail(mailer.ReportAccessData{
		SiteName:    "Junction",
		FullName:    "Ada Lovelace",
		ReportTitle: "Field Survey 2025",
		Reason:      "Members only for now.",
	})

	if !strings.Contains(e.Subject, "denied") {
		t.Errorf("subject = %q, want denial notice", e.Subject)
	}
	for _, body := range []string{e.TextBody, e.HTMLBody} {
		if !strings.Contains(body, "Members only for now.") {
			t.Error("denial reason missing from body")
		}
		if strings.Contains(body, "/reports/access/") {
			t.Error("denial email must not carry an access link")
		}
	}
}
