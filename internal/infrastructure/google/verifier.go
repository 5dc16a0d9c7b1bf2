package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Verifier checks Google Sign-In ID tokens issued for one OAuth client.
type Verifier struct {
	validator *idtoken.Validator
	clientID  string
}

func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	validator, err := idtoken.NewValidator(ctx, option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	if err != nil {
		return nil, fmt.Errorf("failed to create id token validator: %w", err)
	}
	return &Verifier{validator: validator, clientID: clientID}, nil
}

// Verify validates the credential's signature, expiry and audience and
// returns the identity it asserts.
func (v *Verifier) Verify(ctx context.Context, credential string) (*domain.Identity, error) {
	payload, err := v.validator.Validate(ctx, credential, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return identityFromClaims(payload.Subject, payload.Claims), nil
}

func identityFromClaims(subject string, claims map[string]interface{}) *domain.Identity {
	id := &domain.Identity{Subject: subject}
	id.Email, _ = claims["email"].(string)
	id.Name, _ = claims["name"].(string)
	id.Picture, _ = claims["picture"].(string)

	// Google sends email_verified as a bool, older tokens as a string.
	switch v := claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = v == "true"
	}
	return id
}
