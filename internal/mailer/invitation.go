package mailer

import (
	"fmt"
	"html"
	"strings"

	"procureai/internal"
)

// InvitationSubject carries the reference token that ties vendor replies
// back to the RFP, so the token must survive reply-prefixing untouched.
func InvitationSubject(rfp internal.RFP) string {
	return fmt.Sprintf("Request for Proposal: %s %s", rfp.Title, internal.SubjectRef(rfp.ID))
}

// InvitationBodies renders the plain-text and HTML variants of the RFP
// invitation from the structured request.
func InvitationBodies(rfp internal.RFP, vendor internal.Vendor) (string, string) {
	s := rfp.Structured

	var text strings.Builder
	greeting := vendor.Name
	if vendor.ContactPerson != nil && *vendor.ContactPerson != "" {
		greeting = *vendor.ContactPerson
	}
	fmt.Fprintf(&text, "Dear %s,\n\n", greeting)
	text.WriteString("We are requesting a proposal for the following procurement:\n\n")

	if len(s.Items) > 0 {
		text.WriteString("Items:\n")
		for _, item := range s.Items {
			line := fmt.Sprintf("- %s (qty: %d)", item.Name, item.Quantity)
			if item.Specs != "" {
				line += ": " + item.Specs
			}
			text.WriteString(line + "\n")
		}
		text.WriteString("\n")
	}
	if s.Budget != nil {
		currency := s.Currency
		if currency == "" {
			currency = "USD"
		}
		fmt.Fprintf(&text, "Budget: %.2f %s\n", *s.Budget, currency)
	}
	if s.Deadline != nil && *s.Deadline != "" {
		fmt.Fprintf(&text, "Deadline: %s\n", *s.Deadline)
	}
	if len(s.Requirements) > 0 {
		text.WriteString("\nRequirements:\n")
		for _, req := range s.Requirements {
			text.WriteString("- " + req + "\n")
		}
	}
	text.WriteString("\nPlease reply to this email with your proposal, including pricing, delivery timeline and warranty terms.\n")
	text.WriteString("Keep the subject line intact so your reply can be matched to this request.\n")

	var htmlBody strings.Builder
	htmlBody.WriteString("<html><body>")
	fmt.Fprintf(&htmlBody, "<p>Dear %s,</p>", html.EscapeString(greeting))
	htmlBody.WriteString("<p>We are requesting a proposal for the following procurement:</p>")
	if len(s.Items) > 0 {
		htmlBody.WriteString("<ul>")
		for _, item := range s.Items {
			fmt.Fprintf(&htmlBody, "<li><b>%s</b> (qty: %d)", html.EscapeString(item.Name), item.Quantity)
			if item.Specs != "" {
				fmt.Fprintf(&htmlBody, ": %s", html.EscapeString(item.Specs))
			}
			htmlBody.WriteString("</li>")
		}
		htmlBody.WriteString("</ul>")
	}
	if s.Budget != nil {
		currency := s.Currency
		if currency == "" {
			currency = "USD"
		}
		fmt.Fprintf(&htmlBody, "<p>Budget: <b>%.2f %s</b></p>", *s.Budget, html.EscapeString(currency))
	}
	if s.Deadline != nil && *s.Deadline != "" {
		fmt.Fprintf(&htmlBody, "<p>Deadline: <b>%s</b></p>", html.EscapeString(*s.Deadline))
	}
	if len(s.Requirements) > 0 {
		htmlBody.WriteString("<p>Requirements:</p><ul>")
		for _, req := range s.Requirements {
			fmt.Fprintf(&htmlBody, "<li>%s</li>", html.EscapeString(req))
		}
		htmlBody.WriteString("</ul>")
	}
	htmlBody.WriteString("<p>Please reply to this email with your proposal, including pricing, delivery timeline and warranty terms.</p>")
	htmlBody.WriteString("<p><i>Keep the subject line intact so your reply can be matched to this request.</i></p>")
	htmlBody.WriteString("</body></html>")

	return text.String(), htmlBody.String()
}
