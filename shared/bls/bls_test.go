package bls

import (
	"testing"

	"github.com/adaszko/lighthouse/shared/testutil/assert"
	"github.com/adaszko/lighthouse/shared/testutil/require"
)

func TestSignVerify(t *testing.T) {
	priv := RandKey()
	pub := priv.PublicKey()
	msg := []byte("hello")
	sig := priv.Sign(msg, 0)
	assert.Equal(t, true, sig.Verify(msg, pub, 0), "signature did not verify")
	assert.Equal(t, false, sig.Verify([]byte("world"), pub, 0), "signature verified the wrong message")
	assert.Equal(t, false, sig.Verify(msg, pub, 1), "signature verified under the wrong domain")
}

func TestVerifyAggregateCommon(t *testing.T) {
	pubkeys := make([]*PublicKey, 0, 4)
	sigs := make([]*Signature, 0, 4)
	msg := []byte{1, 2, 3, 4}
	for i := 0; i < 4; i++ {
		priv := RandKey()
		pub := priv.PublicKey()
		sig := priv.Sign(msg, 0)
		pubkeys = append(pubkeys, pub)
		sigs = append(sigs, sig)
	}
	aggSig := AggregateSignatures(sigs)
	assert.Equal(t, true, aggSig.VerifyAggregateCommon(pubkeys, msg, 0), "aggregated signature did not verify")
	assert.Equal(t, false, aggSig.VerifyAggregateCommon(pubkeys[:2], msg, 0), "verified with missing public keys")
	assert.Equal(t, false, aggSig.VerifyAggregateCommon(nil, msg, 0), "verified with no public keys")
}

func TestMarshalRoundTrip(t *testing.T) {
	priv := RandKey()
	pub := priv.PublicKey()
	sig := priv.Sign([]byte("msg"), 7)

	pub2, err := PublicKeyFromBytes(pub.Marshal())
	require.NoError(t, err)
	sig2, err := SignatureFromBytes(sig.Marshal())
	require.NoError(t, err)
	assert.Equal(t, true, sig2.Verify([]byte("msg"), pub2, 7))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, uint64(0), Domain([4]byte{0, 0, 0, 0}, [4]byte{0, 0, 0, 0}))
	assert.Equal(t, uint64(1), Domain([4]byte{1, 0, 0, 0}, [4]byte{0, 0, 0, 0}))
	assert.NotEqual(t,
		Domain([4]byte{1, 0, 0, 0}, [4]byte{0, 0, 0, 0}),
		Domain([4]byte{1, 0, 0, 0}, [4]byte{1, 0, 0, 0}))
}
