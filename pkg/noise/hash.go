package noise

import (
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/hkdf"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	HASH_SHA256  = "SHA256"
	HASH_SHA512  = "SHA512"
	HASH_BLAKE2B = "BLAKE2b"
	HASH_BLAKE2S = "BLAKE2s"
)

var hashRegistry *utils.Registry[string, Hash]

// Hash is the Hash capability: a streaming hash.Hash factory, HKDF and
// BLOCKLEN/HASHLEN metadata.
type Hash interface {
	// New returns a fresh streaming hash.Hash.
	New() hash.Hash

	// Size returns HASHLEN.
	Size() int

	// BlockSize returns BLOCKLEN, needed by HMAC/HKDF.
	BlockSize() int

	// Kdf runs HKDF with the given salt and ikm, filling each of outs with
	// HASHLEN bytes of output (len(outs) must be 2 or 3, matching
	// mix_key/mix_preshared_key's output counts).
	Kdf(salt, ikm []byte, outs ...[]byte) error

	// Name returns the algorithm name used in protocol names, e.g. "SHA256".
	Name() string
}

// MustRegisterHash adds algo to the Hash registry under name. It panics on conflict.
func MustRegisterHash(name string, algo Hash) {
	if err := RegisterHash(name, algo); nil != err {
		panic(err)
	}
}

// RegisterHash adds algo to the Hash registry under name.
func RegisterHash(name string, algo Hash) error {
	if nil == algo || algo.Size() < hashMinSize {
		return newError(nil, "invalid Hash algorithm %s", name)
	}
	return wrapError(utils.RegistrySet(hashRegistry, name, algo), ErrRegistrationConflict, "failed registering Hash algorithm %s", name)
}

// GetHash loads a Hash from the registry.
func GetHash(name string) (Hash, error) {
	h, found := utils.RegistryGet(hashRegistry, name)
	if !found || nil == h {
		return nil, wrapError(ErrUnsupportedHash, ErrUnsupportedHash, "Hash algorithm %s", name)
	}
	return h, nil
}

// stdHash adapts a stdlib-shaped hash constructor to the Hash interface.
type stdHash struct {
	newFunc   func() hash.Hash
	size      int
	blockSize int
	name      string
}

func (self stdHash) New() hash.Hash { return self.newFunc() }
func (self stdHash) Size() int      { return self.size }
func (self stdHash) BlockSize() int { return self.blockSize }
func (self stdHash) Name() string   { return self.name }

// Kdf implements HKDF-Extract-and-Expand with num_outputs in {2,3}, as used
// by mix_key (2 outputs) and mix_preshared_key (3 outputs).
func (self stdHash) Kdf(salt, ikm []byte, outs ...[]byte) error {
	if len(outs) != 2 && len(outs) != 3 {
		return newError(nil, "Kdf requires 2 or 3 outputs, got %d", len(outs))
	}
	reader := hkdf.New(self.newFunc, ikm, salt, nil)
	for i, out := range outs {
		n, err := io.ReadFull(reader, out[:self.size])
		if nil != err {
			return wrapError(err, nil, "failed HKDF output %d", i)
		}
		if n != self.size {
			return newError(nil, "short HKDF output %d", i)
		}
	}
	return nil
}

func init() {
	hashRegistry = utils.NewRegistry[string, Hash]()
	MustRegisterHash(HASH_SHA256, stdHash{newFunc: sha256.New, size: sha256.Size, blockSize: sha256.BlockSize, name: HASH_SHA256})
	MustRegisterHash(HASH_SHA512, stdHash{newFunc: sha512.New, size: sha512.Size, blockSize: sha512.BlockSize, name: HASH_SHA512})
	MustRegisterHash(HASH_BLAKE2B, stdHash{
		newFunc: func() hash.Hash {
			h, err := blake2b.New512(nil)
			if nil != err {
				panic(err)
			}
			return h
		},
		size:      64,
		blockSize: blake2b.BlockSize,
		name:      HASH_BLAKE2B,
	})
	MustRegisterHash(HASH_BLAKE2S, stdHash{
		newFunc: func() hash.Hash {
			h, err := blake2s.New256(nil)
			if nil != err {
				panic(err)
			}
			return h
		},
		size:      32,
		blockSize: blake2s.BlockSize,
		name:      HASH_BLAKE2S,
	})
}
