// Package payments builds UPI deep links and their QR codes for order
// checkout.
package payments

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrPayeeNotConfigured = errors.New("upi payee not configured")

const qrSize = 256

type Payee struct {
	VPA  string
	Name string
}

func (p Payee) Configured() bool {
	return strings.TrimSpace(p.VPA) != ""
}

// LinkRequest describes a single collect request.
type LinkRequest struct {
	AmountINR float64
	Reference string // order id, echoed back as tr
	Note      string
}

// BuildUPILink renders a upi://pay link. Parameter order is fixed so the
// same order always yields the same link.
func BuildUPILink(payee Payee, req LinkRequest) (string, error) {
	if !payee.Configured() {
		return "", ErrPayeeNotConfigured
	}
	if req.AmountINR <= 0 {
		return "", errors.New("amount must be positive")
	}

	params := []struct{ key, value string }{
		{"pa", strings.TrimSpace(payee.VPA)},
		{"pn", strings.TrimSpace(payee.Name)},
		{"am", strconv.FormatFloat(req.AmountINR, 'f', 2, 64)},
		{"cu", "INR"},
		{"tn", strings.TrimSpace(req.Note)},
		{"tr", strings.TrimSpace(req.Reference)},
	}

	var b strings.Builder
	b.WriteString("upi://pay?")
	first := true
	for _, p := range params {
		if p.value == "" {
			continue
		}
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(strings.ReplaceAll(url.QueryEscape(p.value), "+", "%20"))
	}
	return b.String(), nil
}

// QRPNG encodes content as a PNG QR code.
func QRPNG(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, qrSize)
}
