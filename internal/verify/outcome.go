package verify

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Result is the structured verdict extracted from the model's reply for a
// payment-proof document.
type Result struct {
	IsValid           bool             `json:"isValid"`
	IsPaymentProof    bool             `json:"isPaymentProof"`
	DetectedAmount    *decimal.Decimal `json:"detectedAmount"`
	AmountMatches     bool             `json:"amountMatches"`
	DetectedReference string           `json:"detectedReference"`
	ReferenceMatches  bool             `json:"referenceMatches"`
	Recipient         string           `json:"recipient"`
	Confidence        int              `json:"confidence"`
	Issues            []string         `json:"issues"`
	BankName          string           `json:"bankName"`
	TransactionDate   string           `json:"transactionDate"`
	DocumentType      string           `json:"documentType"`
}

// Outcome is the tagged result of a verification attempt: either a parsed
// Result, or a failure reason when the model call or response parsing
// failed. Exactly one of the two is set.
type Outcome struct {
	Result  *Result `json:"result,omitempty"`
	Failure string  `json:"failure,omitempty"`
}

// Failed reports whether the verification attempt itself failed.
func (o *Outcome) Failed() bool {
	return o.Result == nil
}

// Accepted reports whether the proof should move the order to verified:
// the document is a payment proof, the amount matches, and the model is
// reasonably confident.
func (o *Outcome) Accepted() bool {
	if o.Result == nil {
		return false
	}
	r := o.Result
	return r.IsValid && r.IsPaymentProof && r.AmountMatches && r.Confidence >= minConfidence
}

// Summary returns a short human-readable verdict, mirroring the wording
// shown to the admin in the storefront.
func (o *Outcome) Summary() string {
	if o.Result == nil {
		return "Verification failed"
	}
	r := o.Result
	switch {
	case r.IsValid && r.IsPaymentProof && r.AmountMatches && r.Confidence >= minConfidence:
		return "Payment proof verified successfully"
	case r.IsPaymentProof && r.AmountMatches:
		return "Payment proof appears valid but with some concerns"
	case r.IsPaymentProof:
		return "Payment proof detected but amount mismatch"
	case !r.IsPaymentProof:
		return "Document does not appear to be a payment proof"
	default:
		return "Payment proof verification inconclusive"
	}
}

const minConfidence = 70

// parseResult extracts the first JSON object from the model's reply text
// and decodes it. Models often wrap the verdict in prose or a code fence,
// so everything outside the outermost braces is discarded.
func parseResult(text string) (*Result, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in model response")
	}

	var r Result
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, errors.Wrap(err, "decode verification verdict")
	}
	return &r, nil
}
