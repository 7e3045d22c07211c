package noise

// SymmetricState holds the transcript hash h, the chaining key ck, an
// optional cipher key (held by the embedded CipherState) and whether a PSK
// was mixed.
//
// Invariants: h reflects every MixHash call in order; ck is updated only
// by MixKey/MixPresharedKey via HKDF extraction; the inner CipherState's
// nonce resets to 0 on every rekey caused by MixKey (enforced by
// CipherState.InitializeKey).
type SymmetricState struct {
	CipherState
	hash   Hash
	hasPsk bool
	hb     [hashMaxSize]byte
	ckb    [hashMaxSize]byte
	o2b    [hashMaxSize]byte
	o3b    [hashMaxSize]byte
}

// Init sets the SymmetricState's initial state from protoName.
func (self *SymmetricState) Init(protoName string, hashAlgo Hash, cipherFactory CipherFactory) error {
	self.hash = hashAlgo
	self.hasPsk = false
	self.initCK(protoName)
	return wrapError(self.CipherState.Init(cipherFactory), nil, "failed CipherState Init")
}

// MixHash implements mix_hash: h := HASH(h || data).
func (self *SymmetricState) MixHash(data []byte) {
	hsz := self.hash.Size()
	hd := self.hash.New()
	hd.Write(self.hb[:hsz])
	hd.Write(data)
	hd.Sum(self.hb[:0])
}

// MixKey implements mix_key: runs HKDF(salt=ck, ikm=input) with 2 outputs;
// the first becomes ck, the first cipherKeySize bytes of the second
// become the cipher key (InitializeKey also resets n to 0, I3).
func (self *SymmetricState) MixKey(input []byte) error {
	hsz := self.hash.Size()
	ck := self.ckb[:hsz]
	tk := self.o2b[:hsz]
	if err := self.hash.Kdf(ck, input, ck, tk); nil != err {
		return wrapError(err, nil, "failed HKDF in MixKey")
	}
	return wrapError(self.InitializeKey(tk[:cipherKeySize]), nil, "failed InitializeKey in MixKey")
}

// MixPresharedKey implements mix_preshared_key: runs HKDF(salt=ck, ikm=psk)
// with 3 outputs; the first becomes ck, the second is mixed into h via
// MixHash, the first cipherKeySize bytes of the third become the cipher
// key. Sets has_psk.
func (self *SymmetricState) MixPresharedKey(psk []byte) error {
	if len(psk) != pskKeySize {
		fatalf("pre-shared key must be %d bytes, got %d", pskKeySize, len(psk))
	}
	hsz := self.hash.Size()
	ck := self.ckb[:hsz]
	th := self.o2b[:hsz]
	tk := self.o3b[:hsz]
	if err := self.hash.Kdf(ck, psk, ck, th, tk); nil != err {
		return wrapError(err, nil, "failed HKDF in MixPresharedKey")
	}
	self.MixHash(th)
	self.hasPsk = true
	return wrapError(self.InitializeKey(tk[:cipherKeySize]), nil, "failed InitializeKey in MixPresharedKey")
}

// EncryptAndHash implements encrypt_and_hash: encrypts plaintext with
// ad=h using the inner CipherState, then mixes the ciphertext into h.
func (self *SymmetricState) EncryptAndHash(plaintext []byte) ([]byte, error) {
	hsz := self.hash.Size()
	ciphertext, err := self.EncryptWithAd(self.hb[:hsz], plaintext)
	if nil != err {
		return nil, wrapError(err, nil, "failed EncryptWithAd")
	}
	self.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndHash implements decrypt_and_hash: decrypts ciphertext with
// ad=h using the inner CipherState; on success mixes ciphertext into h and
// returns the plaintext; on failure h is left unchanged and a DecryptError
// is returned.
func (self *SymmetricState) DecryptAndHash(ciphertext []byte) ([]byte, error) {
	hsz := self.hash.Size()
	plaintext, err := self.DecryptWithAd(self.hb[:hsz], ciphertext)
	if nil != err {
		return nil, wrapError(err, nil, "failed DecryptWithAd")
	}
	self.MixHash(ciphertext)
	return plaintext, nil
}

// Split runs HKDF(salt=ck, ikm=empty) with 2 outputs and initializes
// cs1/cs2 with the first cipherKeySize bytes of each. Must only be called
// once the handshake's message pattern is fully consumed; HandshakeState
// enforces that precondition.
func (self *SymmetricState) Split(cs1, cs2 *CipherState) error {
	hsz := self.hash.Size()
	ck := self.ckb[:hsz]
	tk1 := self.o2b[:hsz]
	tk2 := self.o3b[:hsz]
	if err := self.hash.Kdf(ck, nil, tk1, tk2); nil != err {
		return wrapError(err, nil, "failed HKDF in Split")
	}
	factory := self.CipherState.factory
	cs1.factory = factory
	cs2.factory = factory
	if err := cs1.InitializeKey(tk1[:cipherKeySize]); nil != err {
		return wrapError(err, nil, "failed initializing cs1")
	}
	if err := cs2.InitializeKey(tk2[:cipherKeySize]); nil != err {
		return wrapError(err, nil, "failed initializing cs2")
	}
	return nil
}

// HasPresharedKey reports whether MixPresharedKey was called.
func (self *SymmetricState) HasPresharedKey() bool {
	return self.hasPsk
}

// HashName returns the active Hash algorithm's name.
func (self *SymmetricState) HashName() string {
	return self.hash.Name()
}

// HandshakeHash returns a copy of h, the cumulative transcript hash.
// Normally called once the handshake has completed, for channel binding.
func (self *SymmetricState) HandshakeHash() []byte {
	hsz := self.hash.Size()
	rv := make([]byte, hsz)
	copy(rv, self.hb[:hsz])
	return rv
}

func (self *SymmetricState) initCK(protoName string) {
	hsz := self.hash.Size()
	psb := []byte(protoName)
	if len(psb) <= hsz {
		clear(self.hb[:])
		copy(self.hb[:], psb)
	} else {
		hd := self.hash.New()
		hd.Write(psb)
		hd.Sum(self.hb[:0])
	}
	copy(self.ckb[:hsz], self.hb[:hsz])
}

// destroy zeroes ck, the HKDF scratch outputs and the inner cipher key. h
// is kept, so HandshakeHash still returns the final transcript hash.
func (self *SymmetricState) destroy() {
	clear(self.ckb[:])
	clear(self.o2b[:])
	clear(self.o3b[:])
	self.CipherState.destroy()
}
