package transactions

import (
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"

	"github.com/rollkit/lightbridge/types"
)

// networkPrefix is the SS58 address prefix of the Avail network.
const networkPrefix = 42

// SecretKey is sr25519 key material parsed from a secret URI, a mnemonic or a
// hex seed. It never prints its content.
type SecretKey struct {
	pair signature.KeyringPair
}

// ParseSecretKey parses secret. Any failure is reported as ErrKeyParse alone,
// so the input never ends up in an error message or a log record.
func ParseSecretKey(secret string) (SecretKey, error) {
	secret = strings.TrimSpace(strings.TrimRight(secret, "\x00"))
	if secret == "" {
		return SecretKey{}, types.ErrKeyParse
	}
	pair, err := signature.KeyringPairFromSecret(secret, networkPrefix)
	if err != nil {
		return SecretKey{}, types.ErrKeyParse
	}
	return SecretKey{pair: pair}, nil
}

// Address returns the SS58 address of the key.
func (k SecretKey) Address() string {
	return k.pair.Address
}

func (k SecretKey) String() string {
	return "SecretKey{" + k.pair.Address + "}"
}

func (k SecretKey) GoString() string {
	return k.String()
}

// Signer signs data submissions. It can only be built from a parsed key.
type Signer struct {
	pair signature.KeyringPair
}

// NewSigner returns a Signer for key.
func NewSigner(key SecretKey) (*Signer, error) {
	if len(key.pair.PublicKey) == 0 {
		return nil, types.ErrKeyParse
	}
	return &Signer{pair: key.pair}, nil
}

// Address returns the SS58 address of the signing account.
func (s *Signer) Address() string {
	return s.pair.Address
}

// KeyringPair returns the pair used to sign extrinsics.
func (s *Signer) KeyringPair() signature.KeyringPair {
	return s.pair
}
