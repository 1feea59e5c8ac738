package utils

import (
	"errors"
	"fmt"
	"time"

	"animvid/models"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIssuer    = errors.New("invalid issuer")
)

// VerifyConfig selects the key and the claim checks of VerifyConvertJWT.
// With both keys set, the HMAC secret wins.
type VerifyConfig struct {
	SecretKey      []byte        // HS256
	PublicKey      any           // RS256, *rsa.PublicKey
	ExpectedIssuer string        // empty skips the check
	ClockSkew      time.Duration // tolerance on exp and iat
}

func (c VerifyConfig) key() (any, []jose.SignatureAlgorithm, error) {
	switch {
	case len(c.SecretKey) > 0:
		return c.SecretKey, []jose.SignatureAlgorithm{jose.HS256}, nil
	case c.PublicKey != nil:
		return c.PublicKey, []jose.SignatureAlgorithm{jose.RS256}, nil
	}
	return nil, nil, errors.New("no verification key provided")
}

// VerifyConvertJWT verifies a convert request token and decodes its claims.
func VerifyConvertJWT(tokenString string, config VerifyConfig) (*models.ConvertClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	key, algs, err := config.key()
	if err != nil {
		return nil, err
	}

	tok, err := jwt.ParseSigned(tokenString, algs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims := &models.ConvertClaims{}
	if err := tok.Claims(key, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if err := checkClaims(claims, config, time.Now()); err != nil {
		return nil, err
	}
	return claims, nil
}

func checkClaims(c *models.ConvertClaims, config VerifyConfig, now time.Time) error {
	if c.ExpiresAt > 0 && now.Add(-config.ClockSkew).Unix() > c.ExpiresAt {
		return ErrTokenExpired
	}
	if c.IssuedAt > 0 && now.Add(config.ClockSkew).Unix() < c.IssuedAt {
		return ErrTokenNotYetValid
	}
	if config.ExpectedIssuer != "" && c.Issuer != config.ExpectedIssuer {
		return fmt.Errorf("%w: expected %q, got %q", ErrInvalidIssuer, config.ExpectedIssuer, c.Issuer)
	}
	return nil
}

// CreateConvertJWT signs claims with an HS256 secret.
func CreateConvertJWT(claims *models.ConvertClaims, secret []byte) (string, error) {
	if claims == nil {
		return "", errors.New("claims cannot be nil")
	}
	if len(secret) < 32 {
		return "", errors.New("signing secret must be at least 32 bytes")
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secret}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}
	return token, nil
}
