package noise

import (
	"errors"
	"fmt"

	"code.noisecore.dev/golang/internal/utils"
)

var (
	// ErrUnsupportedDH, ErrUnsupportedHash and ErrUnsupportedCipher flag
	// errors returned when a protocol name references an algorithm that
	// was not registered.
	ErrUnsupportedDH     = errors.New("noise: unsupported DH algorithm")
	ErrUnsupportedHash   = errors.New("noise: unsupported Hash algorithm")
	ErrUnsupportedCipher = errors.New("noise: unsupported Cipher algorithm")

	ErrInvalidProtocolName = errors.New("noise: invalid protocol name")
	ErrPatternUnknown      = errors.New("noise: unknown handshake pattern")

	ErrRegistrationConflict = errors.New("noise: registration conflict")

	ErrInvalidCipherKeySize = errors.New("noise: invalid cipher key size")
	ErrCipherKeyOverUse     = errors.New("noise: cipher nonce exhausted")

	// ErrMissingRemoteKey flags a DH call made with a nil peer public key.
	ErrMissingRemoteKey = errors.New("noise: missing required remote public key")
)

// DecryptError is returned by CipherState.DecryptWithAd whenever AEAD
// authentication fails, and reaches callers of
// HandshakeState.ReadMessage through its decrypt_and_hash calls. It is the
// only error ReadMessage returns: every other misuse of a running handshake
// is a contract violation and panics instead of returning an error.
type DecryptError struct {
	utils.RaisedErr
}

func (self DecryptError) Error() string {
	return fmt.Sprintf("noise: decryption failed: %s", self.RaisedErr.Error())
}

func (self DecryptError) Unwrap() []error {
	return self.RaisedErr.Unwrap()
}

func newDecryptError(cause error, msg string, args ...any) error {
	raised := utils.WrapError(cause, 1, nil, msg, args...)
	if nil == raised {
		raised = utils.NewError(1, nil, msg, args...)
	}
	return DecryptError{RaisedErr: raised.(utils.RaisedErr)}
}

// IsDecryptError reports whether err is (or wraps) a DecryptError.
func IsDecryptError(err error) bool {
	var decErr DecryptError
	return errors.As(err, &decErr)
}

func newError(flag error, msg string, args ...any) error {
	return utils.NewError(1, flag, msg, args...)
}

func wrapError(cause error, flag error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, flag, msg, args...)
}

// fatalf reports a contract violation: wrong turn, oversize message,
// missing remote key, nonce overflow, use after completion. These are
// programmer errors, not part of the recoverable error surface, so this
// package panics rather than returning an error.
func fatalf(msg string, args ...any) {
	panic(fmt.Sprintf("noise: contract violation: "+msg, args...))
}
