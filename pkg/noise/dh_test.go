package noise

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
)

func TestGetDHUnsupported(t *testing.T) {
	_, err := GetDH("bogus")
	if !errors.Is(err, ErrUnsupportedDH) {
		t.Fatalf("expected ErrUnsupportedDH, got %v", err)
	}
}

func TestDH25519Exchange(t *testing.T) {
	dh, err := GetDH(DH_25519)
	if nil != err {
		t.Fatalf("failed GetDH: %v", err)
	}
	if dh.DHLen() != 32 {
		t.Fatalf("DHLen() = %d, want 32", dh.DHLen())
	}
	if dh.Name() != DH_25519 {
		t.Fatalf("Name() = %s, want %s", dh.Name(), DH_25519)
	}

	alice, err := dh.Generate(rand.Reader)
	if nil != err {
		t.Fatalf("failed generating alice keypair: %v", err)
	}
	bob, err := dh.Generate(rand.Reader)
	if nil != err {
		t.Fatalf("failed generating bob keypair: %v", err)
	}

	alicePub, err := dh.NewPublicKey(bob.PublicKey().Bytes())
	if nil != err {
		t.Fatalf("failed parsing bob public key: %v", err)
	}
	bobPub, err := dh.NewPublicKey(alice.PublicKey().Bytes())
	if nil != err {
		t.Fatalf("failed parsing alice public key: %v", err)
	}

	secret1, err := dh.DH(alice, alicePub)
	if nil != err {
		t.Fatalf("failed alice DH: %v", err)
	}
	secret2, err := dh.DH(bob, bobPub)
	if nil != err {
		t.Fatalf("failed bob DH: %v", err)
	}
	if !bytes.Equal(secret1, secret2) {
		t.Fatal("shared secrets do not match")
	}
	if len(secret1) != dh.DHLen() {
		t.Fatalf("shared secret length = %d, want %d", len(secret1), dh.DHLen())
	}
}

func TestRegisterDHConflict(t *testing.T) {
	dh, _ := GetDH(DH_25519)
	err := RegisterDH(DH_25519, dh)
	if nil == err {
		t.Fatal("expected conflict registering an already-registered DH name")
	}
}
