package templates

import (
	"strings"
	"testing"
)

func TestRenderOverdueCaseAlertEmail(t *testing.T) {
	html := RenderOverdueCaseAlertEmail("Sam", []OverdueCase{
		{ReportID: "5fc51f58c72ff10004dca382", Title: "Stolen bicycle", Status: "pending", SLAHours: 4, SuggestedAction: "Review and triage the report"},
	})

	for _, want := range []string{"Sam", "5fc51f58c72ff10004dca382", "Stolen bicycle", "target: 4h", "Review and triage the report"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected rendered email to contain %q", want)
		}
	}
}

func TestRenderGenericEmailEscapesBody(t *testing.T) {
	html := RenderGenericEmail("Subject", "<script>alert(1)</script>\nsecond line")

	if strings.Contains(html, "<script>") {
		t.Error("expected body HTML to be escaped")
	}
	if !strings.Contains(html, "second line") {
		t.Error("expected body content to survive rendering")
	}
	if !strings.Contains(html, "<br>") {
		t.Error("expected newlines to become <br> tags")
	}
}
