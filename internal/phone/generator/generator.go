// Package generator produces the two random artifacts of an issuance: the
// numeric security code the user types back, and the opaque session token
// correlating the attempt.
package generator

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	dErrors "afridio/pkg/domain-errors"
)

const sessionTokenBytes = 32

// Generator produces fixed-length numeric codes and high-entropy session
// tokens.
type Generator struct {
	codeLength int
	codeSpace  *big.Int
}

// New builds a generator for codes of the given digit length.
func New(codeLength int) (*Generator, error) {
	if codeLength < 4 || codeLength > 10 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "code length must be between 4 and 10 digits")
	}
	space := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(codeLength)), nil)
	return &Generator{codeLength: codeLength, codeSpace: space}, nil
}

// Code returns a left-zero-padded numeric string drawn uniformly from the
// full code space, so "000042" is as likely as any other value.
func (g *Generator) Code() (string, error) {
	n, err := rand.Int(rand.Reader, g.codeSpace)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate security code")
	}
	return fmt.Sprintf("%0*d", g.codeLength, n), nil
}

// SessionToken returns a URL-safe opaque token with 256 bits of entropy. It
// is a correlation handle, not a credential: it is sent to the client and
// must never grant access on its own.
func (g *Generator) SessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate session token")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
