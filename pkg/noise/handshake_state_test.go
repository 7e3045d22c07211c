package noise

import (
	"bytes"
	"testing"
)

func mustConfig(t *testing.T, protoName string) Config {
	t.Helper()
	var cfg Config
	if err := cfg.Load(protoName); nil != err {
		t.Fatalf("failed Config.Load(%s): %v", protoName, err)
	}
	return cfg
}

func mustKeypair(t *testing.T, dh DH) *Keypair {
	t.Helper()
	kp, err := dh.Generate(rnd)
	if nil != err {
		t.Fatalf("failed generating keypair: %v", err)
	}
	return kp
}

// driveHandshake alternates WriteMessage/ReadMessage between initiator and
// responder until both report finished, feeding payloads in round-robin
// order. It returns the transport ciphers derived by Split on both sides.
func driveHandshake(t *testing.T, initiator, responder *HandshakeState, payloads [][]byte) (cs1i, cs2i, cs1r, cs2r *CipherState) {
	t.Helper()
	sender, receiver := initiator, responder
	for i := 0; !sender.Finished() || !receiver.Finished(); i++ {
		var payload []byte
		if i < len(payloads) {
			payload = payloads[i]
		}
		var buf bytes.Buffer
		_, wfin := sender.WriteMessage(payload, &buf)

		var out bytes.Buffer
		_, rfin, err := receiver.ReadMessage(buf.Bytes(), &out)
		if nil != err {
			t.Fatalf("failed ReadMessage at step %d: %v", i, err)
		}
		if !bytes.Equal(out.Bytes(), payload) {
			t.Fatalf("payload mismatch at step %d: got %q, want %q", i, out.Bytes(), payload)
		}
		if wfin != rfin {
			t.Fatalf("finished mismatch at step %d: sender=%v receiver=%v", i, wfin, rfin)
		}
		sender, receiver = receiver, sender
	}

	cs1i, cs2i = &CipherState{}, &CipherState{}
	if err := initiator.Split(cs1i, cs2i); nil != err {
		t.Fatalf("failed initiator.Split: %v", err)
	}
	cs1r, cs2r = &CipherState{}, &CipherState{}
	if err := responder.Split(cs1r, cs2r); nil != err {
		t.Fatalf("failed responder.Split: %v", err)
	}
	return
}

func TestHandshakeNNRoundTrip(t *testing.T) {
	cfg := mustConfig(t, "Noise_NN_25519_SHA256_ChaChaPoly")

	initiator, err := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: true})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(initiator): %v", err)
	}
	responder, err := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: false})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(responder): %v", err)
	}

	cs1i, cs2i, cs1r, cs2r := driveHandshake(t, initiator, responder, [][]byte{nil, nil})

	if !bytes.Equal(initiator.HandshakeHash(), responder.HandshakeHash()) {
		t.Fatal("initiator and responder transcript hashes must match")
	}

	pt := []byte("transport payload from initiator")
	ct, err := cs1i.EncryptWithAd(nil, pt)
	if nil != err {
		t.Fatalf("failed EncryptWithAd: %v", err)
	}
	got, err := cs1r.DecryptWithAd(nil, ct)
	if nil != err {
		t.Fatalf("failed DecryptWithAd: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatal("cs1 round trip failed: initiator's cs1 and responder's cs1 must agree bytewise")
	}

	pt2 := []byte("transport payload from responder")
	ct2, err := cs2r.EncryptWithAd(nil, pt2)
	if nil != err {
		t.Fatalf("failed EncryptWithAd: %v", err)
	}
	got2, err := cs2i.DecryptWithAd(nil, ct2)
	if nil != err {
		t.Fatalf("failed DecryptWithAd: %v", err)
	}
	if !bytes.Equal(got2, pt2) {
		t.Fatal("cs2 round trip failed: initiator's cs2 and responder's cs2 must agree bytewise")
	}
}

func TestHandshakeXXRoundTripWithPrologueAndPayloads(t *testing.T) {
	cfg := mustConfig(t, "Noise_XX_25519_SHA256_ChaChaPoly")
	prologue := []byte("noise")

	initiatorStatic := mustKeypair(t, cfg.DH)
	responderStatic := mustKeypair(t, cfg.DH)

	initiator, err := NewHandshakeState(HandshakeParams{
		Cfg: cfg, Initiator: true, Prologue: prologue, StaticKeypair: initiatorStatic,
	})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(initiator): %v", err)
	}
	responder, err := NewHandshakeState(HandshakeParams{
		Cfg: cfg, Initiator: false, Prologue: prologue, StaticKeypair: responderStatic,
	})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(responder): %v", err)
	}

	payloads := [][]byte{[]byte("abc"), []byte("def"), []byte("ghi")}
	driveHandshake(t, initiator, responder, payloads)

	if !bytes.Equal(initiator.RemoteStaticKey().Bytes(), responderStatic.PublicKey().Bytes()) {
		t.Fatal("initiator should have learned the responder's static key")
	}
	if !bytes.Equal(responder.RemoteStaticKey().Bytes(), initiatorStatic.PublicKey().Bytes()) {
		t.Fatal("responder should have learned the initiator's static key")
	}
}

func TestHandshakeIKFirstMessageSTokenSize(t *testing.T) {
	cfg := mustConfig(t, "Noise_IK_25519_SHA256_ChaChaPoly")

	initiatorStatic := mustKeypair(t, cfg.DH)
	responderStatic := mustKeypair(t, cfg.DH)
	responderPub := responderStatic.PublicKey()

	initiator, err := NewHandshakeState(HandshakeParams{
		Cfg: cfg, Initiator: true, StaticKeypair: initiatorStatic, RemoteStaticKey: responderPub,
	})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(initiator): %v", err)
	}
	responder, err := NewHandshakeState(HandshakeParams{
		Cfg: cfg, Initiator: false, StaticKeypair: responderStatic,
	})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(responder): %v", err)
	}

	var buf bytes.Buffer
	initiator.WriteMessage(nil, &buf)

	// message 1 is e, es, s, ss, <payload>: a bare e public key, followed
	// by the static key and the (empty) payload, both AEAD-tagged once es
	// has keyed the cipher.
	want := initiator.DHLen() + (initiator.DHLen() + cipherTagSize) + cipherTagSize
	if buf.Len() != want {
		t.Fatalf("IK first message length = %d, want %d (e || es-encrypted s || encrypted payload)", buf.Len(), want)
	}

	var out bytes.Buffer
	if _, _, err := responder.ReadMessage(buf.Bytes(), &out); nil != err {
		t.Fatalf("failed responder ReadMessage: %v", err)
	}
	if !bytes.Equal(responder.RemoteStaticKey().Bytes(), initiatorStatic.PublicKey().Bytes()) {
		t.Fatal("responder should learn the initiator's static key from message 1")
	}
}

func TestHandshakePskSensitivity(t *testing.T) {
	cfg := mustConfig(t, "NoisePSK_NN_25519_SHA256_ChaChaPoly")

	pskA := bytes.Repeat([]byte{0xAA}, pskKeySize)
	pskB := bytes.Repeat([]byte{0xBB}, pskKeySize)

	initiator, err := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: true, Psk: pskA})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(initiator): %v", err)
	}
	responder, err := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: false, Psk: pskB})
	if nil != err {
		t.Fatalf("failed NewHandshakeState(responder): %v", err)
	}

	// MixPresharedKey keys the cipher before any message is written, so a
	// mismatched PSK is already detectable on the very first message: the
	// initiator's message-1 payload is AEAD-tagged under the wrong key.
	var buf bytes.Buffer
	initiator.WriteMessage(nil, &buf)

	var out bytes.Buffer
	_, _, err = responder.ReadMessage(buf.Bytes(), &out)
	if nil == err {
		t.Fatal("expected message 1 to fail decryption under a mismatched pre-shared key")
	}
	if !IsDecryptError(err) {
		t.Fatalf("expected a DecryptError, got %T: %v", err, err)
	}
}

func TestHandshakeTamperedMessageFailsDecryption(t *testing.T) {
	cfg := mustConfig(t, "Noise_NN_25519_SHA256_ChaChaPoly")
	initiator, _ := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: true})
	responder, _ := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: false})

	var buf bytes.Buffer
	initiator.WriteMessage(nil, &buf)
	var out bytes.Buffer
	if _, _, err := responder.ReadMessage(buf.Bytes(), &out); nil != err {
		t.Fatalf("failed message 1: %v", err)
	}

	var buf2 bytes.Buffer
	responder.WriteMessage([]byte("hello"), &buf2)
	tampered := bytes.Clone(buf2.Bytes())
	tampered[len(tampered)-1] ^= 0x01

	var out2 bytes.Buffer
	_, _, err := initiator.ReadMessage(tampered, &out2)
	if nil == err {
		t.Fatal("expected a DecryptError for a tampered message")
	}
	if !IsDecryptError(err) {
		t.Fatalf("expected a DecryptError, got %T: %v", err, err)
	}
}

func TestHandshakeOversizeMessagePanics(t *testing.T) {
	cfg := mustConfig(t, "Noise_NN_25519_SHA256_ChaChaPoly")
	initiator, _ := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: true})

	defer func() {
		if nil == recover() {
			t.Fatal("expected a panic for a payload that exceeds MAXMSGLEN")
		}
	}()
	oversized := make([]byte, msgMaxSize+1)
	var buf bytes.Buffer
	initiator.WriteMessage(oversized, &buf)
}

func TestHandshakeOutOfTurnWritePanics(t *testing.T) {
	cfg := mustConfig(t, "Noise_NN_25519_SHA256_ChaChaPoly")
	responder, _ := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: false})

	defer func() {
		if nil == recover() {
			t.Fatal("expected a panic when WriteMessage is called out of turn")
		}
	}()
	var buf bytes.Buffer
	responder.WriteMessage(nil, &buf)
}

func TestHandshakeSplitBeforeCompletionPanics(t *testing.T) {
	cfg := mustConfig(t, "Noise_NN_25519_SHA256_ChaChaPoly")
	initiator, _ := NewHandshakeState(HandshakeParams{Cfg: cfg, Initiator: true})

	defer func() {
		if nil == recover() {
			t.Fatal("expected a panic calling Split before the handshake completes")
		}
	}()
	var cs1, cs2 CipherState
	initiator.Split(&cs1, &cs2)
}
