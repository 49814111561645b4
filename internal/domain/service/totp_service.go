package service

// TOTPKey is a freshly generated shared secret.
type TOTPKey struct {
	Secret string // Base32 secret
	URL    string // otpauth:// provisioning URI
}

// TOTPService generates and checks RFC 6238 one-time codes.
type TOTPService interface {
	// Generate creates a new secret for the given account label.
	Generate(accountName string) (*TOTPKey, error)

	// Validate checks a 6-digit code against the secret, accepting the previous time step.
	Validate(code, secret string) bool
}
