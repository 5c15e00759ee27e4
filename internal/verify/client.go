// Package verify checks uploaded payment proofs against the expected EFT
// amount and reference using a Gemini-style vision model.
package verify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the model endpoint settings.
type Config struct {
	// BaseURL is the API root, e.g. https://generativelanguage.googleapis.com.
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls a generateContent endpoint with the proof document inlined
// as base64 and parses the JSON verdict out of the reply text.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a verification client. A zero Timeout defaults to 30s.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Request describes one proof document to verify.
type Request struct {
	Data           []byte
	MimeType       string
	ExpectedAmount decimal.Decimal
	// ExpectedReference is the EFT reference the customer was told to use,
	// normally their full name.
	ExpectedReference string
}

// generateContent wire types, trimmed to the fields this client uses.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Verify sends the proof to the model and returns the outcome. The returned
// error covers only programmer mistakes (nil data); transport and parse
// failures are folded into the Outcome so callers can persist them.
func (c *Client) Verify(ctx context.Context, req Request) *Outcome {
	text, err := c.generate(ctx, req)
	if err != nil {
		return &Outcome{Failure: err.Error()}
	}

	result, err := parseResult(text)
	if err != nil {
		return &Outcome{Failure: err.Error()}
	}
	return &Outcome{Result: result}
}

func (c *Client) generate(ctx context.Context, req Request) (string, error) {
	body := generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: buildPrompt(req.ExpectedAmount, req.ExpectedReference)},
				{InlineData: &inlineData{
					MimeType: req.MimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Data),
				}},
			},
		}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "encode request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "call model")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("model returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty model response")
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// buildPrompt asks for the exact JSON verdict shape parseResult expects.
func buildPrompt(amount decimal.Decimal, reference string) string {
	return fmt.Sprintf(`Analyze this payment proof image/document and verify the following:

Expected Payment Amount: R%s
Expected Reference: %s

Please check:
1. Is this a valid payment proof/receipt/bank statement?
2. Can you identify the payment amount? What amount is shown?
3. Can you identify the recipient/beneficiary information?
4. Can you identify any reference information?
5. Does the payment amount match R%s (allow for small differences like bank fees)?
6. Is this document clear and readable?
7. Does this appear to be a legitimate banking document?

Respond in JSON format:
{
  "isValid": boolean,
  "isPaymentProof": boolean,
  "detectedAmount": number or null,
  "amountMatches": boolean,
  "detectedReference": "string or null",
  "referenceMatches": boolean,
  "recipient": "string or null",
  "confidence": number (0-100),
  "issues": ["array of any issues found"],
  "bankName": "string or null",
  "transactionDate": "string or null",
  "documentType": "string (e.g., 'bank receipt', 'statement', 'proof of payment')"
}

Be thorough but also consider that bank documents can vary in format. Look for key payment indicators like amounts, dates, references, and banking information.`,
		amount.StringFixed(2), reference, amount.StringFixed(2))
}
