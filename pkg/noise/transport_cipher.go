package noise

// TransportCipher wraps a CipherState that has been populated by
// HandshakeState.Split, giving a caller receiving the two split
// CipherStates a type that refuses to operate unkeyed, since an empty-key
// CipherState is a valid (pre-handshake) state but an insecure one once the
// transport phase begins.
type TransportCipher struct {
	CipherState
}

// EncryptWithAd authenticated-encrypts plaintext, erroring if the
// TransportCipher has no key rather than silently passing plaintext
// through the way a mid-handshake CipherState does.
func (self *TransportCipher) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if !self.HasKey() {
		return nil, newError(nil, "TransportCipher has no key")
	}
	return self.CipherState.EncryptWithAd(ad, plaintext)
}

// DecryptWithAd authenticated-decrypts ciphertext, erroring if the
// TransportCipher has no key.
func (self *TransportCipher) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if !self.HasKey() {
		return nil, newError(nil, "TransportCipher has no key")
	}
	return self.CipherState.DecryptWithAd(ad, ciphertext)
}
