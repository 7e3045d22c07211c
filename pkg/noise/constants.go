package noise

const (
	// cipherKeySize is the size in bytes of a CipherState symmetric key.
	cipherKeySize = 32

	// cipherNonceSize is the size in bytes of the nonce passed to the AEAD.
	cipherNonceSize = 12

	// cipherTagSize is TAGLEN in the noise protocol specs: the size in
	// bytes of the authentication tag appended by encrypt_with_ad.
	cipherTagSize = 16

	// dhMinSize is the smallest DHLEN this core accepts for a registered DH
	// algorithm.
	dhMinSize = 32

	// hashMinSize/hashMaxSize bound HASHLEN across the registered hash
	// algorithms; buffers are sized to hashMaxSize and sliced to the
	// active hash's Size().
	hashMinSize = 32
	hashMaxSize = 64

	// msgMaxSize is MAXMSGLEN in the noise protocol specs: the maximum
	// size in bytes of one handshake (or transport) message.
	msgMaxSize = 65535

	// pskKeySize is the required size in bytes of a pre-shared key.
	pskKeySize = 32

	// maxMessages/maxTokensPerMessage bound the fixed-width message
	// pattern matrix every pattern compiles down to, avoiding dynamic
	// dispatch over a variable-length token list.
	maxMessages         = 10
	maxTokensPerMessage = 10

	// maxNonce is the reserved nonce value 2^64-1, which a CipherState
	// never uses: reaching it is treated as fatal.
	maxNonce = ^uint64(0)
)
