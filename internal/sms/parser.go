// Package sms turns unstructured bank notification text into structured
// transaction candidates. The pipeline is heuristic by design: it aims for
// useful-most-of-the-time extraction, not bank-grade accuracy, and a
// rejected message is an expected outcome rather than an error.
package sms

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vstack/internal/core"
)

// ParsedTransaction is a transaction candidate pending confirmation. The
// category is advisory for income-classified amounts; callers ignore it.
type ParsedTransaction struct {
	Amount      decimal.Decimal
	Type        core.TransactionType
	Description string
	Category    string
	Merchant    string
	Date        time.Time
}

// Parse extracts a transaction candidate from a raw message body. The
// second return is false when no usable amount is found; every other stage
// is best-effort and cannot fail.
//
// Stage order matters: the amount gate runs first and short-circuits the
// whole pipeline, type classification and category inference read the
// normalized text, and description extraction reads the original-case text
// (the merchant capture relies on it).
func Parse(body, sender string) (ParsedTransaction, bool) {
	normalized := strings.ToLower(strings.TrimSpace(body))

	amount, ok := extractAmount(normalized)
	if !ok {
		return ParsedTransaction{}, false
	}

	description := extractDescription(body, sender)

	return ParsedTransaction{
		Amount:      amount,
		Type:        classifyType(normalized),
		Description: description,
		Category:    inferCategory(normalized, description),
		Merchant:    extractMerchant(normalized, sender),
		Date:        time.Now(),
	}, true
}

// extractAmount tries each amount pattern in order and returns the first
// positive parse. Thousands separators are stripped before parsing.
func extractAmount(text string) (decimal.Decimal, bool) {
	for _, p := range amountPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil || m[1] == "" {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		if amount.IsPositive() {
			return amount, true
		}
	}
	return decimal.Decimal{}, false
}

// classifyType is conservatively biased toward expense: income requires a
// credit keyword AND the absence of every debit keyword.
func classifyType(text string) core.TransactionType {
	hasCredit := containsAny(text, creditKeywords)
	hasDebit := containsAny(text, debitKeywords)
	if hasCredit && !hasDebit {
		return core.Income
	}
	return core.Expense
}

func extractDescription(body, sender string) string {
	description := strings.TrimSpace(body)
	description = strings.TrimSpace(protocolPrefix.ReplaceAllString(description, ""))

	if m := merchantPatterns[0].FindStringSubmatch(description); m != nil && m[1] != "" {
		return strings.TrimSpace(m[1])
	}

	if sender != "" && !strings.Contains(description, sender) {
		return truncate(description, 50) + " - " + sender
	}

	return truncate(description, 100)
}

func inferCategory(text, description string) string {
	searchText := strings.ToLower(text + " " + description)
	for _, rule := range categoryRules {
		if containsAny(searchText, rule.keywords) {
			return rule.id
		}
	}
	return core.UnknownExpensesID
}

func extractMerchant(text, sender string) string {
	for _, p := range merchantPatterns {
		if m := p.FindStringSubmatch(text); m != nil && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return sender
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
