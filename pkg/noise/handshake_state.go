package noise

import (
	"io"
	"log/slog"

	"code.noisecore.dev/golang/internal/observability"
)

// HandshakeState drives one Noise handshake to completion.
//
// Lifecycle: constructed once via NewHandshakeState, mutated only through
// WriteMessage/ReadMessage, finalized once the last row of the message
// pattern has been consumed. After finalization the caller must call Split and must not use
// the HandshakeState further.
type HandshakeState struct {
	SymmetricState

	initiator    bool
	myTurnToSend bool
	pattern      resolvedPattern
	messageIndex int

	curve DH
	s     *Keypair
	e     *Keypair
	rs    *PublicKey
	re    *PublicKey

	log *slog.Logger
}

// HandshakeParams holds NewHandshakeState's parameters: the resolved
// Config, initiator/responder role, prologue, optional pre-shared key, and
// whichever of the local static/ephemeral keypairs and remote public keys
// the chosen pattern requires. The RNG used for ephemeral key generation is
// the package-private rnd reader, a process-wide crypto/rand wrapper, so
// callers do not supply one directly.
type HandshakeParams struct {
	Cfg                Config
	Initiator          bool
	Prologue           []byte
	StaticKeypair      *Keypair
	EphemeralKeypair   *Keypair
	RemoteStaticKey    *PublicKey
	RemoteEphemeralKey *PublicKey
	Psk                []byte

	// Logger receives a Debug-level trace of each handshake message written
	// or read, and of Split.
	// Defaults to observability.NoopLogger() when nil.
	Logger *slog.Logger
}

// NewHandshakeState constructs and initializes a HandshakeState: it builds
// the protocol name, mixes the prologue, optionally mixes the pre-shared
// key, then mixes every pre-message public key into h.
func NewHandshakeState(params HandshakeParams) (*HandshakeState, error) {
	cfg := params.Cfg
	if nil == cfg.DH || nil == cfg.Hash || nil == cfg.Cipher {
		return nil, newError(nil, "incomplete Config, missing DH, Hash or Cipher")
	}
	rp, err := resolvePattern(cfg.Pattern)
	if nil != err {
		return nil, wrapError(err, nil, "failed resolving pattern %s", cfg.Pattern)
	}
	if cfg.Psk && pskKeySize != len(params.Psk) {
		return nil, newError(nil, "Config requires a %d byte pre-shared key", pskKeySize)
	}

	log := params.Logger
	if nil == log {
		log = observability.NoopLogger()
	}

	self := &HandshakeState{
		curve:        cfg.DH,
		initiator:    params.Initiator,
		pattern:      rp,
		messageIndex: 0,
		s:            params.StaticKeypair,
		e:            params.EphemeralKeypair,
		rs:           params.RemoteStaticKey,
		re:           params.RemoteEphemeralKey,
		log:          log,
	}

	protoName := buildProtocolName(cfg.Psk, rp.name, cfg.DH.Name(), cfg.Hash.Name(), cfg.Cipher.Name())
	if err := self.SymmetricState.Init(protoName, cfg.Hash, cfg.Cipher); nil != err {
		return nil, wrapError(err, nil, "failed SymmetricState Init")
	}

	self.MixHash(params.Prologue)

	if cfg.Psk {
		if err := self.MixPresharedKey(params.Psk); nil != err {
			return nil, wrapError(err, nil, "failed MixPresharedKey")
		}
	}

	self.mixPreMessage(rp.preInitiator, true)
	self.mixPreMessage(rp.preResponder, false)

	self.myTurnToSend = self.initiator

	return self, nil
}

// mixPreMessage mixes the public keys referenced by a pre-message row into
// h: if the row belongs to this side, use our own s/e.PublicKey(); if it
// belongs to the peer, use rs/re (which must already be present, or
// construction is ill-formed).
func (self *HandshakeState) mixPreMessage(tokens [2]Token, rowIsInitiator bool) {
	forUs := rowIsInitiator == self.initiator
	for _, tkn := range tokens {
		switch tkn {
		case TokenEmpty:
			continue
		case TokenE:
			self.MixHash(self.premsgPublicKey(forUs, self.e, self.re))
		case TokenS:
			self.MixHash(self.premsgPublicKey(forUs, self.s, self.rs))
		default:
			// unreachable as long as the pattern resolver only ever emits
			// E/S/Empty in pre-message rows.
			fatalf("invalid pre-message token %v", tkn)
		}
	}
}

func (self *HandshakeState) premsgPublicKey(forUs bool, local *Keypair, remote *PublicKey) []byte {
	if forUs {
		if nil == local {
			fatalf("missing local keypair required by pre-message")
		}
		return local.PublicKey().Bytes()
	}
	if nil == remote {
		fatalf("missing remote public key required by pre-message")
	}
	return remote.Bytes()
}

// WriteMessage produces the next handshake message. It panics if called
// out of turn, after completion, or if the produced message would exceed
// MAXMSGLEN — all contract violations, not part of the recoverable error
// surface.
func (self *HandshakeState) WriteMessage(payload []byte, out io.Writer) (bytesWritten int, finished bool) {
	if !self.myTurnToSend {
		fatalf("WriteMessage called out of turn")
	}
	if self.messageIndex >= self.pattern.messageCount {
		fatalf("WriteMessage called after handshake completion")
	}

	rowTokens := self.pattern.messages[self.messageIndex]
	self.log.Debug("write_message", "pattern", self.pattern.name, "index", self.messageIndex, "initiator", self.initiator)
	self.messageIndex++
	finished = self.messageIndex >= self.pattern.messageCount

	buf := make([]byte, 0, msgMaxSize)
	for _, tkn := range rowTokens {
		if TokenEmpty == tkn {
			break
		}
		switch tkn {
		case TokenE:
			if nil == self.e {
				kp, err := self.curve.Generate(rnd)
				if nil != err {
					fatalf("failed generating ephemeral keypair: %v", err)
				}
				self.e = kp
			}
			pub := self.e.PublicKey().Bytes()
			self.MixHash(pub)
			if self.HasPresharedKey() {
				self.mixKeyOrFatal(pub)
			}
			buf = append(buf, pub...)
		case TokenS:
			if nil == self.s {
				fatalf("missing local static keypair required by pattern")
			}
			ciphertext, err := self.EncryptAndHash(self.s.PublicKey().Bytes())
			if nil != err {
				fatalf("failed EncryptAndHash on s: %v", err)
			}
			buf = append(buf, ciphertext...)
		default:
			self.dhToken(tkn)
		}
	}

	ciphertext, err := self.EncryptAndHash(payload)
	if nil != err {
		fatalf("failed EncryptAndHash on payload: %v", err)
	}
	buf = append(buf, ciphertext...)

	if len(buf) > msgMaxSize {
		fatalf("generated message of %d bytes exceeds MAXMSGLEN (%d)", len(buf), msgMaxSize)
	}

	n, err := out.Write(buf)
	if nil != err {
		fatalf("failed writing message: %v", err)
	}

	self.myTurnToSend = false
	return n, finished
}

// ReadMessage consumes the next handshake message. It returns a
// DecryptError on AEAD authentication failure; every other misuse (wrong
// turn, oversize message, after completion) panics.
func (self *HandshakeState) ReadMessage(message []byte, payloadOut io.Writer) (payloadLen int, finished bool, err error) {
	if self.myTurnToSend {
		fatalf("ReadMessage called out of turn")
	}
	if self.messageIndex >= self.pattern.messageCount {
		fatalf("ReadMessage called after handshake completion")
	}
	if len(message) > msgMaxSize {
		fatalf("received message of %d bytes exceeds MAXMSGLEN (%d)", len(message), msgMaxSize)
	}

	rowTokens := self.pattern.messages[self.messageIndex]
	self.log.Debug("read_message", "pattern", self.pattern.name, "index", self.messageIndex, "initiator", self.initiator)
	self.messageIndex++
	finished = self.messageIndex >= self.pattern.messageCount

	dhlen := self.curve.DHLen()
	cursor := 0
	for _, tkn := range rowTokens {
		if TokenEmpty == tkn {
			break
		}
		switch tkn {
		case TokenE:
			if len(message)-cursor < dhlen {
				return 0, finished, newDecryptError(nil, "message too small for e public key")
			}
			raw := message[cursor : cursor+dhlen]
			pub, perr := self.curve.NewPublicKey(raw)
			if nil != perr {
				return 0, finished, newDecryptError(perr, "received invalid e public key")
			}
			cursor += dhlen
			self.re = pub
			self.MixHash(raw)
			if self.HasPresharedKey() {
				self.mixKeyOrFatal(raw)
			}
		case TokenS:
			want := dhlen
			if self.HasKey() {
				want += cipherTagSize
			}
			if len(message)-cursor < want {
				return 0, finished, newDecryptError(nil, "message too small for s credential")
			}
			enc := message[cursor : cursor+want]
			raw, derr := self.DecryptAndHash(enc)
			if nil != derr {
				return 0, finished, derr
			}
			pub, perr := self.curve.NewPublicKey(raw)
			if nil != perr {
				return 0, finished, newDecryptError(perr, "received invalid s public key")
			}
			self.rs = pub
			cursor += want
		default:
			self.dhToken(tkn)
		}
	}

	plaintext, derr := self.DecryptAndHash(message[cursor:])
	if nil != derr {
		return 0, finished, derr
	}

	n, werr := payloadOut.Write(plaintext)
	if nil != werr {
		fatalf("failed writing payload: %v", werr)
	}

	self.myTurnToSend = true
	return n, finished, nil
}

// dhToken executes one of EE/ES/SE/SS and mixes the resulting shared secret
// into the SymmetricState. ES/SE are resolved by branching on initiator at
// execution time rather than by a role-specific pattern row.
func (self *HandshakeState) dhToken(tkn Token) {
	var keypair *Keypair
	var pubkey *PublicKey
	switch tkn {
	case TokenEE:
		keypair, pubkey = self.e, self.re
	case TokenES:
		if self.initiator {
			keypair, pubkey = self.e, self.rs
		} else {
			keypair, pubkey = self.s, self.re
		}
	case TokenSE:
		if self.initiator {
			keypair, pubkey = self.s, self.re
		} else {
			keypair, pubkey = self.e, self.rs
		}
	case TokenSS:
		keypair, pubkey = self.s, self.rs
	default:
		fatalf("unsupported token %v", tkn)
	}
	if nil == keypair {
		fatalf("missing local keypair for %v DH", tkn)
	}
	if nil == pubkey {
		fatalf("missing remote public key for %v DH", tkn)
	}
	secret, err := self.curve.DH(keypair, pubkey)
	if nil != err {
		fatalf("failed %v DH: %v", tkn, err)
	}
	self.mixKeyOrFatal(secret)
}

func (self *HandshakeState) mixKeyOrFatal(ikm []byte) {
	if err := self.MixKey(ikm); nil != err {
		fatalf("failed MixKey: %v", err)
	}
}

// Split finalizes the handshake, deriving cs1/cs2 from the SymmetricState's
// chaining key. It panics if the message pattern is not fully consumed.
// Once Split returns successfully the HandshakeState's own secret material
// is zeroed and must not be used again.
func (self *HandshakeState) Split(cs1, cs2 *CipherState) error {
	if self.messageIndex < self.pattern.messageCount {
		fatalf("Split called before handshake completion")
	}
	if nil == cs1 || nil == cs2 {
		fatalf("Split requires non-nil cs1 and cs2")
	}
	if err := self.SymmetricState.Split(cs1, cs2); nil != err {
		return wrapError(err, nil, "failed Split")
	}
	self.SymmetricState.destroy()
	self.log.Debug("split", "pattern", self.pattern.name)
	return nil
}

// DHLen returns DHLEN for the HandshakeState's configured curve: both the
// PublicKey size and the ECDH shared secret size, an equality that holds
// for X25519/X448.
func (self *HandshakeState) DHLen() int {
	return self.curve.DHLen()
}

// RemoteStaticKey returns the remote static PublicKey, or nil if it has not
// been received or pre-configured yet.
func (self *HandshakeState) RemoteStaticKey() *PublicKey {
	return self.rs
}

// StaticKeypair returns the local static Keypair the HandshakeState was
// constructed with, or nil if none was supplied.
func (self *HandshakeState) StaticKeypair() *Keypair {
	return self.s
}

// Finished reports whether the message pattern has been fully consumed
// (i.e. whether Split may now be called).
func (self *HandshakeState) Finished() bool {
	return self.messageIndex >= self.pattern.messageCount
}
