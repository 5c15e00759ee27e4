package verify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const verdictJSON = `{
	"isValid": true,
	"isPaymentProof": true,
	"detectedAmount": 150.00,
	"amountMatches": true,
	"detectedReference": "Tessa Engelbrecht",
	"referenceMatches": true,
	"recipient": "Artos Bakery",
	"confidence": 92,
	"issues": [],
	"bankName": "FNB",
	"transactionDate": "2024-01-11",
	"documentType": "bank receipt"
}`

func TestParseResult_PlainJSON(t *testing.T) {
	r, err := parseResult(verdictJSON)
	require.NoError(t, err)

	assert.True(t, r.IsValid)
	assert.True(t, r.IsPaymentProof)
	assert.Equal(t, 92, r.Confidence)
	assert.Equal(t, "FNB", r.BankName)
	require.NotNil(t, r.DetectedAmount)
	assert.True(t, r.DetectedAmount.Equal(decimal.RequireFromString("150.00")))
}

func TestParseResult_JSONWrappedInProse(t *testing.T) {
	text := "Here is my analysis of the document:\n```json\n" + verdictJSON + "\n```\nLet me know if you need more."

	r, err := parseResult(text)
	require.NoError(t, err)
	assert.True(t, r.AmountMatches)
	assert.Equal(t, "Tessa Engelbrecht", r.DetectedReference)
}

func TestParseResult_NoJSON(t *testing.T) {
	_, err := parseResult("I cannot read this document.")
	require.Error(t, err)
}

func TestParseResult_MalformedJSON(t *testing.T) {
	_, err := parseResult(`{"isValid": maybe}`)
	require.Error(t, err)
}

func TestOutcomeAccepted(t *testing.T) {
	cases := []struct {
		name    string
		result  Result
		want    bool
		summary string
	}{
		{
			name:    "confident match",
			result:  Result{IsValid: true, IsPaymentProof: true, AmountMatches: true, Confidence: 90},
			want:    true,
			summary: "Payment proof verified successfully",
		},
		{
			name:    "low confidence",
			result:  Result{IsValid: true, IsPaymentProof: true, AmountMatches: true, Confidence: 40},
			want:    false,
			summary: "Payment proof appears valid but with some concerns",
		},
		{
			name:    "amount mismatch",
			result:  Result{IsValid: true, IsPaymentProof: true, AmountMatches: false, Confidence: 90},
			want:    false,
			summary: "Payment proof detected but amount mismatch",
		},
		{
			name:    "not a payment proof",
			result:  Result{IsValid: true, IsPaymentProof: false, Confidence: 90},
			want:    false,
			summary: "Document does not appear to be a payment proof",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := &Outcome{Result: &tc.result}
			assert.Equal(t, tc.want, o.Accepted())
			assert.Equal(t, tc.summary, o.Summary())
			assert.False(t, o.Failed())
		})
	}
}

func TestOutcomeFailure(t *testing.T) {
	o := &Outcome{Failure: "call model: connection refused"}

	assert.True(t, o.Failed())
	assert.False(t, o.Accepted())
	assert.Equal(t, "Verification failed", o.Summary())
}

func TestOutcome_JSONRoundTrip(t *testing.T) {
	amount := decimal.RequireFromString("150.00")
	in := &Outcome{Result: &Result{
		IsValid: true, IsPaymentProof: true, AmountMatches: true,
		DetectedAmount: &amount, Confidence: 88,
		Issues: []string{"date partially obscured"},
	}}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Outcome
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.Accepted())
	assert.Equal(t, in.Result.Issues, out.Result.Issues)
}

func modelServer(t *testing.T, replyText string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "R150.00")
		assert.NotEmpty(t, req.Contents[0].Parts[1].InlineData.Data)

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": replyText}},
				},
			}},
		})
	}))
}

func testRequest() Request {
	return Request{
		Data:              []byte("fake image bytes"),
		MimeType:          "image/jpeg",
		ExpectedAmount:    decimal.RequireFromString("150.00"),
		ExpectedReference: "Tessa Engelbrecht",
	}
}

func TestVerify_SuccessfulVerdict(t *testing.T) {
	srv := modelServer(t, "Analysis complete.\n"+verdictJSON, http.StatusOK)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	outcome := client.Verify(context.Background(), testRequest())

	require.False(t, outcome.Failed(), "failure: %s", outcome.Failure)
	assert.True(t, outcome.Accepted())
	assert.Equal(t, 92, outcome.Result.Confidence)
}

func TestVerify_ModelErrorBecomesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	outcome := client.Verify(context.Background(), testRequest())

	assert.True(t, outcome.Failed())
	assert.Contains(t, outcome.Failure, "status 429")
}

func TestVerify_UnparseableReplyBecomesFailure(t *testing.T) {
	srv := modelServer(t, "The image is too blurry to analyze.", http.StatusOK)
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	outcome := client.Verify(context.Background(), testRequest())

	assert.True(t, outcome.Failed())
	assert.Contains(t, outcome.Failure, "no JSON object")
}
