package noise

// CipherState holds a (possibly absent) symmetric key and a monotonically
// increasing nonce.
type CipherState struct {
	factory CipherFactory
	aead    AEAD
	kb      [cipherKeySize]byte
	n       uint64
	nonceb  [cipherNonceSize]byte
}

// Init binds factory to the CipherState and clears the key, as the noise
// specs' Initialize(key="") does for an unkeyed CipherState.
func (self *CipherState) Init(factory CipherFactory) error {
	self.factory = factory
	return self.InitializeKey(nil)
}

// HasKey reports whether the CipherState currently holds a key.
func (self *CipherState) HasKey() bool {
	return nil != self.aead
}

// InitializeKey sets k and resets n to 0. Passing a nil/empty key clears
// the CipherState, matching the noise specs' special "empty" key.
func (self *CipherState) InitializeKey(key []byte) error {
	var aead AEAD
	switch len(key) {
	case 0:
		clear(self.kb[:])
	case cipherKeySize:
		copy(self.kb[:], key)
		var err error
		aead, err = self.factory.New(self.kb[:])
		if nil != err {
			return wrapError(err, nil, "failed initializing AEAD")
		}
	default:
		return wrapError(ErrInvalidCipherKeySize, ErrInvalidCipherKeySize, "key must be %d bytes, got %d", cipherKeySize, len(key))
	}
	self.aead = aead
	self.n = 0
	return nil
}

// EncryptWithAd encrypts: if keyed, AEAD encrypts plaintext with associated
// data ad, appending a TAGLEN tag and incrementing n; if unkeyed, plaintext
// passes through unchanged.
func (self *CipherState) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if !self.HasKey() {
		return plaintext, nil
	}
	if self.n >= maxNonce {
		fatalf("cipher nonce exhausted")
	}
	nonce := self.nonceb[:]
	self.aead.FillNonce(nonce, self.n)
	ciphertext := self.aead.Seal(nil, nonce, plaintext, ad)
	self.n++
	return ciphertext, nil
}

// DecryptWithAd decrypts: if keyed, AEAD decrypts and authenticates
// ciphertext against ad, returning a DecryptError on authentication failure
// and incrementing n only on success; if unkeyed, ciphertext passes through
// unchanged.
func (self *CipherState) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if !self.HasKey() {
		return ciphertext, nil
	}
	if self.n >= maxNonce {
		fatalf("cipher nonce exhausted")
	}
	nonce := self.nonceb[:]
	self.aead.FillNonce(nonce, self.n)
	plaintext, err := self.aead.Open(nil, nonce, ciphertext, ad)
	if nil != err {
		return nil, newDecryptError(err, "AEAD authentication failed")
	}
	self.n++
	return plaintext, nil
}

// destroy zeroes the cipher key. Called once Split has copied transport
// keys out of the handshake's SymmetricState.
func (self *CipherState) destroy() {
	clear(self.kb[:])
	self.aead = nil
	self.n = 0
}
