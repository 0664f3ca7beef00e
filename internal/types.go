package internal

type RFPStatus string

const (
	StatusDraft  RFPStatus = "draft"
	StatusSent   RFPStatus = "sent"
	StatusClosed RFPStatus = "closed"
)

type RFPItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Specs    string `json:"specs"`
}

// StructuredRequest is the extraction result for a free-text purchasing
// request. Fields the model leaves out stay zero/nil.
type StructuredRequest struct {
	Budget       *float64  `json:"budget"`
	Currency     string    `json:"currency"`
	Deadline     *string   `json:"deadline"`
	Items        []RFPItem `json:"items"`
	Requirements []string  `json:"requirements"`
}

// RFP is a purchasing request. Its id doubles as the correlation token
// embedded in outbound subjects. Structured data is set once at creation;
// Status and SentTo are mutated exactly once by the send operation.
type RFP struct {
	ID              string
	Title           string
	OriginalRequest string
	Structured      StructuredRequest
	Status          RFPStatus
	SentTo          []string
	CreatedAt       string
}

type Vendor struct {
	ID            string
	Name          string
	Email         string
	ContactPerson *string
	Tags          []string
	CreatedAt     string
}

type ProposalLineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Notes string  `json:"notes"`
}

// ProposalData is the extraction result for a vendor reply.
type ProposalData struct {
	TotalPrice       float64            `json:"totalPrice"`
	DeliveryTimeline string             `json:"deliveryTimeline"`
	LineItems        []ProposalLineItem `json:"lineItems"`
	Warranty         string             `json:"warranty"`
	Score            int                `json:"score"`
	Summary          string             `json:"summary"`
	Analysis         string             `json:"analysis"`
}

// Proposal is one reconciled vendor reply. Append-only.
type Proposal struct {
	ID           string
	RFPID        string
	VendorID     string
	EmailContent string
	ReceivedAt   string
	Data         ProposalData
}

type ComparisonRanking struct {
	Vendor string `json:"vendor"`
	Rank   int    `json:"rank"`
	Pros   string `json:"pros"`
	Cons   string `json:"cons"`
}

// Comparison is the extraction result for a cross-proposal comparison.
type Comparison struct {
	Recommendation     string              `json:"recommendation"`
	Reasoning          string              `json:"reasoning"`
	KeyDifferentiators []string            `json:"key_differentiators"`
	Rankings           []ComparisonRanking `json:"rankings"`
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

// MessageOutcome classifies what happened to one inbound message during a
// reconciliation cycle. Skips are expected conditions, not errors.
type MessageOutcome string

const (
	OutcomeProcessed      MessageOutcome = "processed"
	OutcomeParseFailed    MessageOutcome = "parse_failed"
	OutcomeNoRef          MessageOutcome = "no_ref"
	OutcomeUnknownRFP     MessageOutcome = "unknown_rfp"
	OutcomeUnknownVendor  MessageOutcome = "unknown_vendor"
	OutcomeAlreadyHandled MessageOutcome = "already_handled"
	OutcomeExtractFailed  MessageOutcome = "extract_failed"
)
