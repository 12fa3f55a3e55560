package payments

// Validator provides centralized validation for orchestration requests.
// Validation always runs before any network call so that a rejected request
// can never leave half-initiated state at the upstream.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePaymentRequest checks that every field required to initiate a
// payment is present.
func (v *Validator) ValidatePaymentRequest(req PaymentRequest) error {
	var missing []string
	if req.Amount.String() == "" {
		missing = append(missing, "amount")
	}
	if req.CreditorIBAN == "" {
		missing = append(missing, "creditorIban")
	}
	if req.CreditorName == "" {
		missing = append(missing, "creditorName")
	}
	if req.BankName == "" {
		missing = append(missing, "bankName")
	}
	if req.BankCountry == "" {
		missing = append(missing, "bankCountry")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// ValidateAccessRequest checks the fields required to start an account-access
// flow.
func (v *Validator) ValidateAccessRequest(req AccessRequest) error {
	var missing []string
	if req.BankName == "" {
		missing = append(missing, "bankName")
	}
	if req.BankCountry == "" {
		missing = append(missing, "bankCountry")
	}

	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
