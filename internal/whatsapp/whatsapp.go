// Package whatsapp composes wa.me deep links for debt reminders.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"qat-ledger/internal/core"
)

// DefaultCountryCode is Yemen's calling code.
const DefaultCountryCode = "967"

// NormalizePhone reduces a phone number to the digits wa.me expects:
// international prefix ("+" or "00") dropped, a local trunk "0" replaced by
// the country code, and bare 9-digit mobile numbers prefixed with it.
func NormalizePhone(raw, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		}
	}
	digits := b.String()

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "00"):
		return digits[2:]
	case strings.HasPrefix(digits, countryCode):
		return digits
	case strings.HasPrefix(digits, "0"):
		return countryCode + strings.TrimLeft(digits, "0")
	case len(digits) == 9:
		return countryCode + digits
	default:
		return digits
	}
}

// Link builds https://wa.me/<digits>?text=<message>. An empty phone yields a
// link that lets the user pick the contact.
func Link(phone, message, countryCode string) string {
	digits := NormalizePhone(phone, countryCode)
	u := "https://wa.me/" + digits
	if message != "" {
		u += "?text=" + url.QueryEscape(message)
	}
	return u
}

// DebtReminderMessage is the Arabic reminder text for an open debt.
func DebtReminderMessage(d core.Debt, currency string) string {
	if currency == "" {
		currency = "ريال"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "السلام عليكم %s،\n", d.CustomerName)
	fmt.Fprintf(&b, "نذكركم بأن المبلغ المتبقي عليكم هو %s %s", d.RemainingAmount.StringFixed(0), currency)
	if d.PaidAmount.IsPositive() {
		fmt.Fprintf(&b, " (من أصل %s %s)", d.Amount.StringFixed(0), currency)
	}
	b.WriteString(".")
	if d.DueDate != "" {
		fmt.Fprintf(&b, "\nتاريخ الاستحقاق: %s", d.DueDate)
	}
	b.WriteString("\nشكراً لتعاملكم معنا.")
	return b.String()
}
