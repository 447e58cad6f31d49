package document

// Kind identifies a procurement document family
type Kind string

const (
	KindRequest   Kind = "request"
	KindOrder     Kind = "order"
	KindQuotation Kind = "quotation"
	KindOffer     Kind = "offer"
	KindShipment  Kind = "shipment"
	KindInvoice   Kind = "invoice"
)

var prefixes = map[Kind]string{
	KindRequest:   "REQ",
	KindOrder:     "ORD",
	KindQuotation: "QUO",
	KindOffer:     "OFR",
	KindShipment:  "SHP",
	KindInvoice:   "INV",
}

// AllKinds lists every document kind in flow order
func AllKinds() []Kind {
	return []Kind{KindRequest, KindOrder, KindQuotation, KindOffer, KindShipment, KindInvoice}
}

// ParseKind validates a path or payload kind
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	_, ok := prefixes[k]
	return k, ok
}

// IsValid reports whether k is a known kind
func (k Kind) IsValid() bool {
	_, ok := prefixes[k]
	return ok
}

// Prefix returns the display prefix, e.g. REQ
func (k Kind) Prefix() string {
	return prefixes[k]
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Derived returns the kind created when a document of kind k is approved, if any
func (k Kind) Derived() (Kind, bool) {
	switch k {
	case KindRequest:
		return KindOrder, true
	case KindQuotation:
		return KindOffer, true
	}
	return "", false
}

// Status of a procurement document
type Status string

const (
	StatusPending   Status = "Pending"
	StatusReceived  Status = "Received"
	StatusCompleted Status = "Completed"
	StatusRejected  Status = "Rejected"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReceived, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for Completed and Rejected
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// NextOnApprove returns the status an approval moves a document of kind k to.
// Shipments are received before they complete; every other kind completes directly.
func NextOnApprove(k Kind, current Status) (Status, bool) {
	switch current {
	case StatusPending:
		if k == KindShipment {
			return StatusReceived, true
		}
		return StatusCompleted, true
	case StatusReceived:
		if k == KindShipment {
			return StatusCompleted, true
		}
	}
	return "", false
}

// CanReject reports whether a document in current status can still be rejected
func CanReject(current Status) bool {
	return current == StatusPending || current == StatusReceived
}
