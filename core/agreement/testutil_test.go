package agreement

// testSchema mirrors a typical enrollment agreement: signer details, payment
// selection with WIOA-conditional fields, a cost table feeding derivation, and
// required acknowledgements.
func testSchema() *AgreementSchema {
	return &AgreementSchema{
		ID:      "enrollment-agreement",
		Version: "2026.1",
		Title:   "Enrollment Agreement",
		Sections: []Section{
			{
				ID:    "signer",
				Title: "Student Information",
				Elements: []Element{
					{
						Kind: ElementFieldGroup,
						FieldGroup: &FieldGroup{
							Layout: "two-column",
							Fields: []FieldDefinition{
								{Name: "signer.name", Label: "Full Name", Kind: FieldText, Required: true},
								{Name: "signer.email", Label: "Email", Kind: FieldEmail, Required: true},
								{Name: "signer.phone", Label: "Phone", Kind: FieldTel},
								{Name: "signer.start_date", Label: "Start Date", Kind: FieldDate, DefaultValue: DefaultToday},
							},
						},
					},
				},
			},
			{
				ID:    "program",
				Title: "Program & Payment",
				Elements: []Element{
					{
						Kind: ElementTable,
						Table: &TableBlock{
							Title:  "Program Cost Breakdown",
							Header: []string{"Item", "Amount"},
							Rows: [][]string{
								{"Tuition", "$4,000.00"},
								{"Registration Fee", "$500.00"},
								{"Program Total", "$4,500.00"},
							},
						},
					},
					{
						Kind: ElementFieldGroup,
						FieldGroup: &FieldGroup{
							Fields: []FieldDefinition{
								{
									Name: PaymentSelectionField, Label: "Payment Method", Kind: FieldSelect, Required: true,
									Options: []Option{
										{Value: "self_pay", Label: "Self Pay"},
										{Value: PaymentWIOAGrant, Label: "WIOA Grant"},
										{Value: PaymentWIOAOnly, Label: "WIOA Only"},
									},
								},
								{Name: "program.wioa_county", Label: "WIOA County", Kind: FieldText, Required: true},
								{Name: "program.wioa_advisor_name", Label: "WIOA Advisor Name", Kind: FieldText, Required: true},
								{Name: "program.wioa_advisor_email", Label: "WIOA Advisor Email", Kind: FieldEmail, Required: true},
								{Name: DepositAmountField, Label: "Deposit Amount", Kind: FieldCurrency, Required: true},
								{Name: RemainingBalanceField, Label: "Remaining Balance", Kind: FieldCurrency, ReadOnly: true},
							},
						},
					},
				},
			},
			{
				ID:    "terms",
				Title: "Terms & Acknowledgements",
				Elements: []Element{
					{
						Kind: ElementText,
						Text: &TextBlock{Style: "body", Content: "Please read and initial each clause."},
					},
					{
						Kind: ElementList,
						List: &ListBlock{Items: []string{"Attendance policy", "Refund policy"}},
					},
					{
						Kind: ElementAcknowledgementList,
						Acknowledgements: &AcknowledgementList{
							Items: []Acknowledgement{
								{ID: "refund_policy", Label: "I have read the refund policy", Required: true, MaxLen: 4},
								{ID: "attendance", Label: "I agree to the attendance policy", Required: true, MaxLen: 4},
								{ID: "newsletter", Label: "Send me program updates"},
							},
						},
					},
				},
			},
		},
	}
}
