package templates

import (
	"fmt"
	"strings"
)

// OverdueCase is one line item in the overdue case digest email
type OverdueCase struct {
	ReportID        string
	Title           string
	Status          string
	SLAHours        int
	SuggestedAction string
}

// RenderOverdueCaseAlertEmail generates the supervisor digest listing every
// case that has exceeded its status SLA
func RenderOverdueCaseAlertEmail(recipientName string, cases []OverdueCase) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Hi %s,\n\n", recipientName))
	sb.WriteString(fmt.Sprintf("%d case(s) have exceeded their response time target and need attention:\n\n", len(cases)))
	for _, c := range cases {
		sb.WriteString(fmt.Sprintf("Case %s - %s\n", c.ReportID, c.Title))
		sb.WriteString(fmt.Sprintf("  Status: %s (target: %dh)\n", c.Status, c.SLAHours))
		sb.WriteString(fmt.Sprintf("  Next step: %s\n\n", c.SuggestedAction))
	}
	sb.WriteString("Please review these cases in the dispatch dashboard.")

	return RenderGenericEmail("Overdue Case Alert", sb.String())
}
