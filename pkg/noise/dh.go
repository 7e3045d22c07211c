package noise

import (
	"crypto/ecdh"
	"crypto/rand"
	"io"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	DH_25519 = "25519"
)

var (
	dhRegistry *utils.Registry[string, DH]

	// rnd is the RNG HandshakeState passes to DH.Generate when it
	// generates an ephemeral keypair.
	rnd io.Reader = randReader{}
)

// Keypair and PublicKey are the DH capability's key types. X25519 is
// implemented by crypto/ecdh, so this package adapts that interface
// instead of defining its own; crypto/ecdh has no X448.
type (
	Keypair   = ecdh.PrivateKey
	PublicKey = ecdh.PublicKey
)

// DH is the Diffie-Hellman capability: generate, pubkey, dh, name.
type DH interface {
	// Generate returns a random Keypair.
	Generate(rng io.Reader) (*Keypair, error)

	// DH performs Diffie-Hellman key exchange between keypair and pubkey,
	// returning a DHLen()-byte shared secret.
	DH(keypair *Keypair, pubkey *PublicKey) ([]byte, error)

	// DHLen returns DHLEN, the size in bytes of a public key and of a
	// shared secret for this curve.
	DHLen() int

	// NewPublicKey parses a wire-format public key.
	NewPublicKey(raw []byte) (*PublicKey, error)

	// Name returns the algorithm name used in protocol names, e.g. "25519".
	Name() string
}

// MustRegisterDH adds algo to the DH registry under name. It panics if name
// is already registered or algo is invalid.
func MustRegisterDH(name string, algo DH) {
	if err := RegisterDH(name, algo); nil != err {
		panic(err)
	}
}

// RegisterDH adds algo to the DH registry under name.
func RegisterDH(name string, algo DH) error {
	if nil == algo || algo.DHLen() < dhMinSize {
		return newError(nil, "invalid DH algorithm %s", name)
	}
	return wrapError(utils.RegistrySet(dhRegistry, name, algo), ErrRegistrationConflict, "failed registering DH algorithm %s", name)
}

// GetDH loads a DH from the registry. It errors if no DH was registered
// under name.
func GetDH(name string) (DH, error) {
	dh, found := utils.RegistryGet(dhRegistry, name)
	if !found || nil == dh {
		return nil, wrapError(ErrUnsupportedDH, ErrUnsupportedDH, "DH algorithm %s", name)
	}
	return dh, nil
}

// ecdhCurve adapts a crypto/ecdh.Curve to the DH interface.
type ecdhCurve struct {
	ecdh.Curve
	name string
}

func (self ecdhCurve) Generate(rng io.Reader) (*Keypair, error) {
	return self.GenerateKey(rng)
}

func (self ecdhCurve) DH(keypair *Keypair, pubkey *PublicKey) ([]byte, error) {
	if nil == keypair {
		return nil, newError(nil, "nil keypair")
	}
	if nil == pubkey {
		return nil, newError(ErrMissingRemoteKey, "nil peer public key")
	}
	return keypair.ECDH(pubkey)
}

func (self ecdhCurve) DHLen() int {
	// Only X25519 is wired: crypto/ecdh does not implement X448, and the
	// noise specs' DHLEN==32 case is what every registered curve here uses.
	return 32
}

func (self ecdhCurve) NewPublicKey(raw []byte) (*PublicKey, error) {
	return self.Curve.NewPublicKey(raw)
}

func (self ecdhCurve) Name() string {
	return self.name
}

type randReader struct{}

func (_ randReader) Read(b []byte) (int, error) {
	return rand.Read(b)
}

func init() {
	dhRegistry = utils.NewRegistry[string, DH]()
	MustRegisterDH(DH_25519, ecdhCurve{Curve: ecdh.X25519(), name: DH_25519})
}
