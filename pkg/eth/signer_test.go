package eth

import (
	"context"
	"math/big"
	"testing"
)

// well-known development key, never funded on a public network
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestKeySignerAddress(t *testing.T) {
	signer, err := NewKeySigner("0x" + testKey)
	if err != nil {
		t.Fatal(err)
	}
	const expected = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	if signer.Address().Hex() != expected {
		t.Errorf("wrong address, expected: %s, have: %s", expected, signer.Address().Hex())
	}
}

func TestSignMessageRecover(t *testing.T) {
	signer, err := NewKeySigner(testKey)
	if err != nil {
		t.Fatal(err)
	}

	message := []byte("list bag #42")
	sig, err := signer.SignMessage(message)
	if err != nil {
		t.Fatal(err)
	}
	if v := sig[64]; v != 27 && v != 28 {
		t.Errorf("wrong v, have: %d", v)
	}

	recovered, err := RecoverMessageSigner(message, sig)
	if err != nil {
		t.Fatal(err)
	}
	if recovered != signer.Address() {
		t.Errorf("wrong signer, expected: %s, have: %s", signer.Address().Hex(), recovered.Hex())
	}

	if _, err := RecoverMessageSigner(message, sig[:10]); err == nil {
		t.Error("short signature must fail")
	}
}

func TestTransactor(t *testing.T) {
	signer, err := NewKeySigner(testKey)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	opts, err := signer.Transactor(ctx, big.NewInt(4))
	if err != nil {
		t.Fatal(err)
	}
	if opts.From != signer.Address() {
		t.Errorf("wrong from, have: %s", opts.From.Hex())
	}
	if opts.Context != ctx {
		t.Error("transactor must carry the context")
	}
}
