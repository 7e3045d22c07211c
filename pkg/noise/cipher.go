package noise

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/chacha20poly1305"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	CIPHER_AESGCM     = "AESGCM"
	CIPHER_CHACHAPOLY = "ChaChaPoly"
)

var cipherRegistry *utils.Registry[string, CipherFactory]

// AEAD is the Cipher capability, extended with the nonce encoding each AEAD
// requires (little-endian for ChaChaPoly, big-endian for AESGCM, both
// prepended with 4 zero bytes per the Noise wire format).
type AEAD interface {
	cipher.AEAD

	// FillNonce writes the wire-format nonce for counter n into nonce,
	// which must be cipherNonceSize bytes long.
	FillNonce(nonce []byte, n uint64)
}

// CipherFactory constructs an AEAD bound to key.
type CipherFactory interface {
	New(key []byte) (AEAD, error)

	// Name returns the algorithm name used in protocol names, e.g. "AESGCM".
	Name() string
}

type cipherFactoryFunc struct {
	newFunc func([]byte) (AEAD, error)
	name    string
}

func (self cipherFactoryFunc) New(key []byte) (AEAD, error) { return self.newFunc(key) }
func (self cipherFactoryFunc) Name() string                 { return self.name }

// MustRegisterCipher adds factory to the Cipher registry under name. It panics on conflict.
func MustRegisterCipher(name string, factory CipherFactory) {
	if err := RegisterCipher(name, factory); nil != err {
		panic(err)
	}
}

// RegisterCipher adds factory to the Cipher registry under name.
func RegisterCipher(name string, factory CipherFactory) error {
	if nil == factory {
		return newError(nil, "invalid Cipher factory %s", name)
	}
	return wrapError(utils.RegistrySet(cipherRegistry, name, factory), ErrRegistrationConflict, "failed registering Cipher factory %s", name)
}

// GetCipherFactory loads a CipherFactory from the registry.
func GetCipherFactory(name string) (CipherFactory, error) {
	factory, found := utils.RegistryGet(cipherRegistry, name)
	if !found || nil == factory {
		return nil, wrapError(ErrUnsupportedCipher, ErrUnsupportedCipher, "Cipher algorithm %s", name)
	}
	return factory, nil
}

type aesGCMAEAD struct {
	cipher.AEAD
}

func newAESGCM(key []byte) (AEAD, error) {
	if len(key) != cipherKeySize {
		return nil, wrapError(ErrInvalidCipherKeySize, ErrInvalidCipherKeySize, "AESGCM key must be %d bytes", cipherKeySize)
	}
	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, wrapError(err, nil, "failed aes.NewCipher")
	}
	aead, err := cipher.NewGCM(block)
	if nil != err {
		return nil, wrapError(err, nil, "failed cipher.NewGCM")
	}
	return aesGCMAEAD{AEAD: aead}, nil
}

func (_ aesGCMAEAD) FillNonce(nonce []byte, n uint64) {
	if len(nonce) < cipherNonceSize {
		fatalf("invalid nonce buffer size %d", len(nonce))
	}
	binary.BigEndian.PutUint32(nonce, 0)
	binary.BigEndian.PutUint64(nonce[4:], n)
}

type chachaPoly1305AEAD struct {
	cipher.AEAD
}

func newChachaPoly1305(key []byte) (AEAD, error) {
	if len(key) != cipherKeySize {
		return nil, wrapError(ErrInvalidCipherKeySize, ErrInvalidCipherKeySize, "ChaChaPoly key must be %d bytes", cipherKeySize)
	}
	aead, err := chacha20poly1305.New(key)
	if nil != err {
		return nil, wrapError(err, nil, "failed chacha20poly1305.New")
	}
	return chachaPoly1305AEAD{AEAD: aead}, nil
}

func (_ chachaPoly1305AEAD) FillNonce(nonce []byte, n uint64) {
	if len(nonce) < cipherNonceSize {
		fatalf("invalid nonce buffer size %d", len(nonce))
	}
	binary.LittleEndian.PutUint32(nonce, 0)
	binary.LittleEndian.PutUint64(nonce[4:], n)
}

func init() {
	cipherRegistry = utils.NewRegistry[string, CipherFactory]()
	MustRegisterCipher(CIPHER_AESGCM, cipherFactoryFunc{newFunc: newAESGCM, name: CIPHER_AESGCM})
	MustRegisterCipher(CIPHER_CHACHAPOLY, cipherFactoryFunc{newFunc: newChachaPoly1305, name: CIPHER_CHACHAPOLY})
}
