package connectors

import "procureai/internal"

// MailConnector fetches unseen inbox messages. One call covers connect,
// list, fetch and disconnect; any error means the mailbox was not usable
// this cycle. Fetching a message marks it seen in the underlying store.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
