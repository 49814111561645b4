package auth

import (
	"strings"
	"time"

	"globalchek/config"
	"globalchek/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpDigits = 6

// totpService implements service.TOTPService with 30 second, 6 digit SHA1 codes.
type totpService struct {
	issuer string
	now    func() time.Time
}

// NewTOTPService creates the TOTP service.
func NewTOTPService(cfg *config.Config) service.TOTPService {
	issuer := "GlobalChek"
	if cfg != nil && cfg.Auth != nil && cfg.Auth.TOTPIssuer != "" {
		issuer = cfg.Auth.TOTPIssuer
	}

	return &totpService{issuer: issuer, now: time.Now}
}

// Generate creates a new secret labelled "<issuer> (<account>)".
func (s *totpService) Generate(accountName string) (*service.TOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: s.issuer + " (" + accountName + ")",
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate totp secret")
	}

	return &service.TOTPKey{Secret: key.Secret(), URL: key.URL()}, nil
}

// Validate accepts the current and the previous time step.
func (s *totpService) Validate(code, secret string) bool {
	code = strings.TrimSpace(code)
	if len(code) != totpDigits || secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, s.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})

	return err == nil && ok
}
