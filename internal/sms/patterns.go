package sms

import "regexp"

// Amount patterns, tried in order; the first match wins. Capture group 1 is
// the numeric amount, possibly with thousands separators.
var amountPatterns = []*regexp.Regexp{
	// Currency-symbol prefixed: "Rs.500", "INR 25,000", "₹1,200.00"
	regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
	// Currency-symbol suffixed: "500 Rs", "1,200.00 INR"
	regexp.MustCompile(`(?i)(\d+(?:,\d+)*(?:\.\d{2})?)\s*(?:rs\.?|inr|₹)`),
	// Labeled: "amount: 500", "Amount Rs. 1,200"
	regexp.MustCompile(`(?i)amount[:\s]+(?:rs\.?|inr|₹)?\s*(\d+(?:,\d+)*(?:\.\d{2})?)`),
	// Keyword-adjacent: "500 debited", "25,000 credited"
	regexp.MustCompile(`(?i)(\d+(?:,\d+)*(?:\.\d{2})?)\s*(?:debited|credited|spent|paid|received)`),
}

var (
	creditKeywords = []string{"credited", "credit", "received", "deposit", "salary", "income", "refund"}
	debitKeywords  = []string{"debited", "debit", "spent", "paid", "purchase", "withdrawn"}
)

// Transfer-protocol prefixes stripped before description extraction.
var protocolPrefix = regexp.MustCompile(`(?i)^(?:upi|imps|neft|rtgs|upi payment)`)

// Merchant capture: "to/at/from <CAPS TOKEN>" followed by an amount or
// currency marker, plus the labeled "merchant:" form.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:to|at|from)\s+([A-Z][A-Z0-9\s]+?)(?:\s+(?:rs|inr|₹|\d))`),
	regexp.MustCompile(`(?i)merchant[:\s]+([A-Z][A-Z0-9\s]+)`),
}

// categoryRule maps a category ID to its keyword list. Rules are evaluated
// in table order with first-match-wins, which doubles as the tie-break:
// "stock" and "sip" both list "investment", so "sip" never wins on that
// keyword alone.
type categoryRule struct {
	id       string
	keywords []string
}

var categoryRules = []categoryRule{
	{"petrol", []string{"petrol", "fuel", "gas", "gasoline", "bpcl", "hp", "indian oil"}},
	{"food", []string{"restaurant", "food", "zomato", "swiggy", "uber eats", "mcdonald", "kfc", "pizza"}},
	{"groceries", []string{"grocery", "supermarket", "bigbasket", "grofers", "dmart", "reliance fresh"}},
	{"shopping", []string{"amazon", "flipkart", "myntra", "shopping", "purchase", "order"}},
	{"room-rent", []string{"rent", "room rent", "house rent", "accommodation"}},
	{"trip", []string{"flight", "hotel", "travel", "trip", "booking", "makemytrip", "goibibo"}},
	{"movie", []string{"movie", "cinema", "bookmyshow", "ticket"}},
	{"skin-care", []string{"pharmacy", "medicine", "apollo", "wellness", "health"}},
	{"gold", []string{"gold", "jewellery", "jewelry"}},
	{"stock", []string{"stock", "share", "nse", "bse", "investment"}},
	{"sip", []string{"sip", "mutual fund", "mf", "investment"}},
}

// Sender fragments that identify known financial institutions and payment
// rails. Matched as substrings of the lowercased sender identifier.
var bankSenderKeywords = []string{
	"bank", "sbi", "hdfc", "icici", "axis", "kotak", "pnb", "bob",
	"upi", "paytm", "phonepe", "gpay", "razorpay",
}
