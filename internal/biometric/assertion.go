// Package biometric verifies platform-authenticator assertions (the
// WebAuthn "get" ceremony) against an enrolled public key.
package biometric

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ClientDataTypeGet = "webauthn.get"

	flagUserPresent  = 0x01
	flagUserVerified = 0x04

	minAuthDataLen = 37
)

var (
	ErrMalformedAssertion = errors.New("malformed assertion")
	ErrClientDataMismatch = errors.New("client data mismatch")
	ErrRelyingParty       = errors.New("relying party mismatch")
	ErrUserNotPresent     = errors.New("user presence not asserted")
	ErrBadSignature       = errors.New("bad signature")
	ErrUnsupportedKey     = errors.New("unsupported public key")
)

type Assertion struct {
	CredentialID      []byte
	ClientDataJSON    []byte
	AuthenticatorData []byte
	Signature         []byte
}

type clientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// Result carries what the authenticator reported once the signature checks out.
type Result struct {
	Counter      uint32
	UserVerified bool
}

type Verifier struct {
	RPID    string
	Origins []string
}

func NewVerifier(rpID string, origins []string) *Verifier {
	return &Verifier{RPID: rpID, Origins: origins}
}

// Verify checks that the assertion answers challenge for this relying party
// and is signed by publicKey (DER SubjectPublicKeyInfo). Counter policy is
// left to the caller.
func (v *Verifier) Verify(a Assertion, challenge, publicKey []byte) (Result, error) {
	if len(a.AuthenticatorData) < minAuthDataLen || len(a.ClientDataJSON) == 0 || len(a.Signature) == 0 {
		return Result{}, ErrMalformedAssertion
	}

	var cd clientData
	if err := json.Unmarshal(a.ClientDataJSON, &cd); err != nil {
		return Result{}, fmt.Errorf("%w: client data: %v", ErrMalformedAssertion, err)
	}
	if cd.Type != ClientDataTypeGet {
		return Result{}, fmt.Errorf("%w: type %q", ErrClientDataMismatch, cd.Type)
	}
	got, err := base64.RawURLEncoding.DecodeString(cd.Challenge)
	if err != nil || subtle.ConstantTimeCompare(got, challenge) != 1 {
		return Result{}, fmt.Errorf("%w: challenge", ErrClientDataMismatch)
	}
	if !v.originAllowed(cd.Origin) {
		return Result{}, fmt.Errorf("%w: origin %q", ErrClientDataMismatch, cd.Origin)
	}

	rpHash := sha256.Sum256([]byte(v.RPID))
	if !bytes.Equal(a.AuthenticatorData[:32], rpHash[:]) {
		return Result{}, ErrRelyingParty
	}
	flags := a.AuthenticatorData[32]
	if flags&flagUserPresent == 0 {
		return Result{}, ErrUserNotPresent
	}

	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return Result{}, err
	}
	cdHash := sha256.Sum256(a.ClientDataJSON)
	signed := make([]byte, 0, len(a.AuthenticatorData)+len(cdHash))
	signed = append(signed, a.AuthenticatorData...)
	signed = append(signed, cdHash[:]...)
	if !verifySignature(pub, signed, a.Signature) {
		return Result{}, ErrBadSignature
	}

	return Result{
		Counter:      binary.BigEndian.Uint32(a.AuthenticatorData[33:37]),
		UserVerified: flags&flagUserVerified != 0,
	}, nil
}

func (v *Verifier) originAllowed(origin string) bool {
	if len(v.Origins) == 0 {
		return origin == "https://"+v.RPID
	}
	for _, o := range v.Origins {
		if o == origin {
			return true
		}
	}
	return false
}

// ParsePublicKey accepts ECDSA P-256 and Ed25519 keys in SPKI DER form, the
// shape browsers return from AuthenticatorAttestationResponse.getPublicKey().
func ParsePublicKey(der []byte) (crypto.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	switch k := key.(type) {
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("%w: curve %s", ErrUnsupportedKey, k.Curve.Params().Name)
		}
		return k, nil
	case ed25519.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
}

func verifySignature(pub crypto.PublicKey, msg, sig []byte) bool {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		digest := sha256.Sum256(msg)
		return ecdsa.VerifyASN1(k, digest[:], sig)
	case ed25519.PublicKey:
		return ed25519.Verify(k, msg, sig)
	}
	return false
}
