package sms

import "strings"

// IsTransactionSMS is the cheap pre-filter callers run before Parse: a
// message is worth parsing iff an amount pattern matches AND either a
// debit/credit keyword appears in the text or the sender looks like a
// known financial institution.
//
// Parse itself does not consult the sender for its accept/reject decision;
// only the amount gate does that.
func IsTransactionSMS(body, sender string) bool {
	text := strings.ToLower(body)

	hasAmount := false
	for _, p := range amountPatterns {
		if p.MatchString(text) {
			hasAmount = true
			break
		}
	}
	if !hasAmount {
		return false
	}

	if containsAny(text, debitKeywords) || containsAny(text, creditKeywords) {
		return true
	}
	return IsBankSender(sender)
}

// IsBankSender reports whether a sender identifier matches the known
// financial-institution keyword list.
func IsBankSender(sender string) bool {
	if sender == "" {
		return false
	}
	return containsAny(strings.ToLower(sender), bankSenderKeywords)
}
