package internal

import "regexp"

// Outbound subjects embed the request id as a literal "[Ref: <id>]"
// marker. Vendors are told to reply without editing the subject, so this
// pattern is the join key between a reply and the request that caused it.
// Any change here needs a matching change in mailer.InvitationSubject.
var refPattern = regexp.MustCompile(`\[Ref: ([a-f0-9]{24})\]`)

func SubjectRef(id string) string {
	return "[Ref: " + id + "]"
}

// ParseSubjectRef extracts the request id from a reply subject. Returns
// false when the subject carries no well-formed marker.
func ParseSubjectRef(subject string) (string, bool) {
	m := refPattern.FindStringSubmatch(subject)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
