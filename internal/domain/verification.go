package domain

// VerificationStatus is the shopper's identity-check state, supplied by an
// external provider. Only "verified" unlocks gated payment methods.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)
