// Package verification classifies photos of farm supplies as genuine or
// suspect.
package verification

import (
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Status is the classification outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Fallback values used when the backend answer cannot be parsed.
const (
	UnknownProduct = "Unknown Product"
	UnknownBrand   = "Unknown"
)

// Result is a product verification outcome.
type Result struct {
	Status           Status    `json:"status"`
	ProductName      string    `json:"productName"`
	Brand            string    `json:"brand"`
	BatchNumber      string    `json:"batchNumber,omitempty"`
	ExpiryDate       string    `json:"expiryDate,omitempty"`
	Serial           string    `json:"serial,omitempty"`
	VerificationTime time.Time `json:"-"`
}

// Genuine reports whether the product looked authentic.
func (r *Result) Genuine() bool {
	return r.Status == StatusSuccess
}

// Explanation is the sentence narrated to the farmer for this result.
func (r *Result) Explanation() string {
	if !r.Genuine() {
		return "Warning! This product could not be verified. It might be counterfeit or expired. Do not use it."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "This is a genuine %s by %s.", r.ProductName, r.Brand)
	if r.ExpiryDate != "" {
		fmt.Fprintf(&b, " It expires in %s.", r.ExpiryDate)
	}
	b.WriteString(" It is safe to use.")

	return b.String()
}

func fallbackResult() *Result {
	return &Result{
		Status:      StatusFailure,
		ProductName: UnknownProduct,
		Brand:       UnknownBrand,
	}
}

// parseResult decodes the backend JSON. Anything unparseable, or a status
// outside success/failure, yields the failure fallback.
func parseResult(content string) *Result {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var r Result
	if err := sonic.UnmarshalString(strings.TrimSpace(content), &r); err != nil {
		return fallbackResult()
	}

	switch r.Status {
	case StatusSuccess:
	case StatusFailure:
		if r.ProductName == "" {
			r.ProductName = UnknownProduct
		}
		if r.Brand == "" {
			r.Brand = UnknownBrand
		}
	default:
		return fallbackResult()
	}

	return &r
}
