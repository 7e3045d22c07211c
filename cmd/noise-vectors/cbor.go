package main

import (
	"os"

	"github.com/fxamacker/cbor/v2"
)

// writeCborBundle saves bundle at path in CBOR, as a compact sibling of the
// JSON output for consumers that prefer a binary fixture format.
func writeCborBundle(path string, bundle vectorBundle) error {
	data, err := cbor.Marshal(bundle)
	if nil != err {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
