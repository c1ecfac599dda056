package agreement

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known field paths read and written by the derivation engine.
const (
	PaymentSelectionField = "program.payment_selection"
	DepositAmountField    = "financial.deposit_amount"
	RemainingBalanceField = "financial.remaining_balance"
)

// WIOA funding selections that keep the WIOA fields visible.
const (
	PaymentWIOAGrant = "wioa_grant"
	PaymentWIOAOnly  = "wioa_only"
)

// conditionalFieldRules maps conditionally-visible fields to the payment
// selections under which they are shown. Clearing on hide is deliberately
// limited to the fields listed here; extending visibility rules means adding
// entries, not guessing a general clear-on-hide policy.
var conditionalFieldRules = map[string][]string{
	"program.wioa_county":        {PaymentWIOAGrant, PaymentWIOAOnly},
	"program.wioa_advisor_name":  {PaymentWIOAGrant, PaymentWIOAOnly},
	"program.wioa_advisor_email": {PaymentWIOAGrant, PaymentWIOAOnly},
}

// ParseCurrency parses a currency-ish string, tolerating symbols and thousand
// separators. Garbage parses to 0.
func ParseCurrency(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// ResolveProgramTotal scans the schema's tables for the "Program Cost" table
// and its "Program Total" row, and parses the row's second cell as currency.
// ok is false when no such table/row exists: the caller must treat that as
// "no derivation possible", not as a zero total.
func ResolveProgramTotal(schema *AgreementSchema) (total float64, ok bool) {
	for _, sec := range schema.Sections {
		for _, el := range sec.Elements {
			if el.Kind != ElementTable || el.Table == nil {
				continue
			}
			if !strings.Contains(strings.ToLower(el.Table.Title), "program cost") {
				continue
			}
			for _, row := range el.Table.Rows {
				if len(row) < 2 {
					continue
				}
				if strings.Contains(strings.ToLower(row[0]), "program total") {
					return ParseCurrency(row[1]), true
				}
			}
		}
	}
	return 0, false
}

// RecomputeDerived recomputes every derived field from its inputs. It is pure
// and synchronous; callers invoke it after every value write so derived state
// can never drift from its inputs. The remaining balance is written only when
// it differs from the stored value, so an unchanged recompute returns the
// input tree untouched.
func RecomputeDerived(schema *AgreementSchema, values FormValues) FormValues {
	total, ok := ResolveProgramTotal(schema)
	if !ok {
		return values
	}

	deposit := ParseCurrency(GetString(values, DepositAmountField))
	balance := total - deposit
	if balance < 0 {
		balance = 0
	}
	formatted := fmt.Sprintf("%.2f", balance)

	if GetString(values, RemainingBalanceField) == formatted {
		return values
	}
	return SetValue(values, RemainingBalanceField, formatted)
}

// HiddenField reports whether the named field is hidden under the current
// payment selection. Unknown fields are always visible (fail open on display);
// validation separately exempts hidden fields from being required (fail closed).
func HiddenField(name, paymentSelection string) bool {
	allowed, conditional := conditionalFieldRules[name]
	if !conditional {
		return false
	}
	for _, sel := range allowed {
		if sel == paymentSelection {
			return false
		}
	}
	return true
}

// ApplyPaymentSelection writes the new payment selection and, in the same
// transition, clears the stored values of every field the new selection hides.
// Callers never observe an intermediate tree with stale values under a hidden
// field.
func ApplyPaymentSelection(values FormValues, selection string) FormValues {
	out := SetValue(values, PaymentSelectionField, selection)
	for name := range conditionalFieldRules {
		if HiddenField(name, selection) {
			if GetString(out, name) != "" {
				out = SetValue(out, name, "")
			}
		}
	}
	return out
}
