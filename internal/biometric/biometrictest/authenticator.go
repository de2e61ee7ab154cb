// Package biometrictest provides a software authenticator that produces
// assertions accepted by biometric.Verifier.
package biometrictest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/biometric"
)

type Authenticator struct {
	CredentialID []byte
	RPID         string
	Origin       string
	Counter      uint32

	key *ecdsa.PrivateKey
}

func New(rpID, origin string) *Authenticator {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	credID := make([]byte, 16)
	if _, err := rand.Read(credID); err != nil {
		panic(err)
	}
	return &Authenticator{CredentialID: credID, RPID: rpID, Origin: origin, key: key}
}

// PublicKey returns the SPKI DER encoding of the credential key.
func (a *Authenticator) PublicKey() []byte {
	der, err := x509.MarshalPKIXPublicKey(&a.key.PublicKey)
	if err != nil {
		panic(err)
	}
	return der
}

// Sign bumps the counter and answers challenge.
func (a *Authenticator) Sign(challenge []byte) biometric.Assertion {
	a.Counter++
	return a.SignWithCounter(challenge, a.Counter)
}

// SignWithCounter answers challenge reporting the given counter without
// touching the authenticator state, which is how a cloned key behaves.
func (a *Authenticator) SignWithCounter(challenge []byte, counter uint32) biometric.Assertion {
	cd, _ := json.Marshal(map[string]string{
		"type":      biometric.ClientDataTypeGet,
		"challenge": base64.RawURLEncoding.EncodeToString(challenge),
		"origin":    a.Origin,
	})
	rpHash := sha256.Sum256([]byte(a.RPID))
	authData := make([]byte, 37)
	copy(authData, rpHash[:])
	authData[32] = 0x05 // user present + user verified
	binary.BigEndian.PutUint32(authData[33:], counter)

	cdHash := sha256.Sum256(cd)
	digest := sha256.Sum256(append(append([]byte{}, authData...), cdHash[:]...))
	sig, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	if err != nil {
		panic(err)
	}
	return biometric.Assertion{
		CredentialID:      a.CredentialID,
		ClientDataJSON:    cd,
		AuthenticatorData: authData,
		Signature:         sig,
	}
}
