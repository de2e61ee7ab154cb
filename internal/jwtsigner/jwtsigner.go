package jwtsigner

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType marks ballot session tokens so no other JWT minted with the same
// key is accepted in their place.
const TokenType = "ballot"

var ErrInvalidToken = errors.New("invalid token")

// Claims are carried by a ballot session token. ID is the session row id.
type Claims struct {
	Method string `json:"amr"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// Signer holds an Ed25519 keypair for issuing JWTs.
type Signer struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	KeyID   string
	Issuer  string
}

// NewFromBase64 loads an Ed25519 key from base64 (standard alphabet). Both
// the 32-byte seed and the 64-byte private key encodings are accepted. An
// empty value yields an ephemeral key, so tokens do not survive a restart.
func NewFromBase64(privB64, kid, iss string) (*Signer, error) {
	var priv ed25519.PrivateKey
	switch raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(privB64)); {
	case err != nil:
		return nil, fmt.Errorf("decode signing key: %w", err)
	case len(raw) == 0:
		if _, priv, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	case len(raw) == ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(raw)
	case len(raw) == ed25519.PrivateKeySize:
		priv = ed25519.PrivateKey(raw)
	default:
		return nil, fmt.Errorf("signing key is %d bytes, want %d or %d", len(raw), ed25519.SeedSize, ed25519.PrivateKeySize)
	}
	return &Signer{private: priv, public: priv.Public().(ed25519.PublicKey), KeyID: kid, Issuer: iss}, nil
}

// Sign issues a session token for subject sub. jti identifies the backing
// session row.
func (s *Signer) Sign(sub, jti, method string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Method: method,
		Type:   TokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Subject:   sub,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.KeyID
	return t.SignedString(s.private)
}

// Parse verifies signature, issuer, expiry and token type.
func (s *Signer) Parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(s.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Type != TokenType || claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// PublicJWK renders the public part as JWK for the JWKS endpoint.
func (s *Signer) PublicJWK() map[string]any {
	return map[string]any{
		"kty": "OKP",
		"crv": "Ed25519",
		"alg": "EdDSA",
		"use": "sig",
		"kid": s.KeyID,
		"x":   base64.RawURLEncoding.EncodeToString(s.public),
	}
}
