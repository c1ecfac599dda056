package agreement

import (
	"fmt"

	"github.com/dkamau/sahihi/core"
)

const (
	requiredFieldText = "this field is required"
	requiredAckText   = "initials are required"
)

// ValidateValues runs a full validation pass over the entire schema: every
// required field not hidden by a visibility rule must hold a non-blank value,
// and every required acknowledgement must hold non-blank trimmed initials.
// The pass is always a complete recompute (never incremental) so an error
// recorded for a since-hidden field can never linger. Errors come back in
// schema order, keyed by field path or acknowledgements.<id>.
func ValidateValues(schema *AgreementSchema, values FormValues) []core.FieldError {
	var errs []core.FieldError
	selection := GetString(values, PaymentSelectionField)

	for _, fld := range schema.Fields() {
		if !fld.Required || fld.ReadOnly {
			continue
		}
		// a hidden field is never required
		if HiddenField(fld.Name, selection) {
			continue
		}
		if blankValue(values, fld.Name) {
			errs = append(errs, core.FieldError{Field: fld.Name, Error: requiredFieldText})
		}
	}

	for _, ack := range schema.Acknowledgements() {
		if !ack.Required {
			continue
		}
		if core.CleanString(Initials(values, ack.ID)) == "" {
			errs = append(errs, core.FieldError{
				Field: AcknowledgementsKey + "." + ack.ID,
				Error: requiredAckText,
			})
		}
	}

	return errs
}

// ValidationSummary renders the user-facing summary for a failed pass,
// referencing the first offending field's label rather than its path.
func ValidationSummary(schema *AgreementSchema, errs []core.FieldError) string {
	if len(errs) == 0 {
		return ""
	}
	first := errs[0]

	if fld, ok := schema.FieldByName(first.Field); ok {
		return fmt.Sprintf("Please complete the %q field before continuing.", fld.Label)
	}
	for _, ack := range schema.Acknowledgements() {
		if AcknowledgementsKey+"."+ack.ID == first.Field {
			return "Please initial all required acknowledgements before continuing."
		}
	}
	return "Please complete all required fields before continuing."
}

func blankValue(values FormValues, path string) bool {
	v, ok := GetValue(values, path)
	if !ok {
		return true
	}
	switch val := v.(type) {
	case string:
		return core.CleanString(val) == ""
	case nil:
		return true
	default:
		return false
	}
}
