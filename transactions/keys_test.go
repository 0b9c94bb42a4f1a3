package transactions

import (
	"fmt"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollkit/lightbridge/types"
)

func TestParseSecretKey(t *testing.T) {
	key, err := ParseSecretKey("//Alice\x00")
	require.NoError(t, err)
	assert.Equal(t, signature.TestKeyringPairAlice.Address, key.Address())

	signer, err := NewSigner(key)
	require.NoError(t, err)
	assert.Equal(t, signature.TestKeyringPairAlice.PublicKey, signer.KeyringPair().PublicKey)
}

func TestParseSecretKeyInvalid(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"0x1234",
		"not a valid mnemonic at all",
		"\x00",
	}
	for _, secret := range cases {
		t.Run(fmt.Sprintf("%q", secret), func(t *testing.T) {
			key, err := ParseSecretKey(secret)
			assert.Equal(t, types.ErrKeyParse, err)
			assert.Empty(t, key.Address())

			_, err = NewSigner(key)
			assert.ErrorIs(t, err, types.ErrKeyParse)
		})
	}
}

func TestSecretKeyIsRedacted(t *testing.T) {
	const secret = "//Alice"
	key, err := ParseSecretKey(secret)
	require.NoError(t, err)

	for _, out := range []string{
		fmt.Sprint(key),
		fmt.Sprintf("%v", key),
		fmt.Sprintf("%+v", key),
		fmt.Sprintf("%#v", key),
	} {
		assert.NotContains(t, out, secret)
		assert.NotContains(t, out, fmt.Sprintf("%x", signature.TestKeyringPairAlice.PublicKey))
	}
}
