// Command noise-vectors drives a battery of handshakes end to end and
// dumps the resulting TestVectors, for use as fixtures by other Noise
// implementations or by this module's own test suite.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"code.noisecore.dev/golang/pkg/noise"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

const usageFmt = `
Command Usage: %s [Flags]
  Generate Noise handshake test vectors.

Flags:
------
`

var (
	defaultPatterns = []string{
		"N", "K", "X",
		"NN", "KN", "NK", "KK", "NX", "KX",
		"XN", "IN", "XK", "IK", "XX", "IX",
	}
	defaultDh      = []string{noise.DH_25519}
	defaultHashes  = []string{noise.HASH_SHA256, noise.HASH_SHA512, noise.HASH_BLAKE2S, noise.HASH_BLAKE2B}
	defaultCiphers = []string{noise.CIPHER_AESGCM, noise.CIPHER_CHACHAPOLY}
)

// Cmd holds the parsed flags driving vector generation.
type Cmd struct {
	Out      *json.Encoder
	CborPath string
	Schemes  []string
	Repeat   int
}

func parseFlags(progname string, args []string) *Cmd {
	cmd := Cmd{}

	flags := flag.NewFlagSet(progname, flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, usageFmt, path.Base(progname))
		flags.PrintDefaults()
	}

	var outPath string
	flags.StringVar(&outPath, "o", "-", `path where to save the generated vectors, as JSON`)
	flags.StringVar(&cmd.CborPath, "cbor", "", `optional path where to also save the vectors as CBOR`)

	var patterns []string
	const patternDoc = `
	Handshake pattern name, e.g. XX or IK.
	Add more than 1 by repeating this option.
	Defaults to every pattern this module supports.
	`
	flags.Func("pattern", dedent(patternDoc), func(v string) error {
		patterns = append(patterns, strings.ToUpper(v))
		return nil
	})

	var hashes []string
	const hashDoc = `
	Hash algorithm name.
	Add more than 1 by repeating this option.
	Defaults to all registered Hash algorithms.
	`
	flags.Func("hash", dedent(hashDoc), func(v string) error {
		if _, err := noise.GetHash(v); nil != err {
			return err
		}
		hashes = append(hashes, v)
		return nil
	})

	var ciphers []string
	const cipherDoc = `
	Cipher algorithm name.
	Add more than 1 by repeating this option.
	Defaults to all registered Cipher algorithms.
	`
	flags.Func("cipher", dedent(cipherDoc), func(v string) error {
		if _, err := noise.GetCipherFactory(v); nil != err {
			return err
		}
		ciphers = append(ciphers, v)
		return nil
	})

	var withPsk bool
	flags.BoolVar(&withPsk, "psk", false, `also generate a NoisePSK_ variant of every scheme`)

	var repeat uint
	flags.UintVar(&repeat, "n", 1, `number of vectors to generate for each scheme`)

	flags.Parse(args)

	var err error
	var outFile *os.File
	if "-" != outPath {
		outFile, err = os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if nil != err {
			logger.Error("failed opening output file", "path", outPath, "error", err)
			os.Exit(1)
		}
	} else {
		outFile = os.Stdout
	}
	enc := json.NewEncoder(outFile)
	enc.SetIndent("", "  ")
	cmd.Out = enc

	if 0 == len(patterns) {
		patterns = defaultPatterns
	}
	if 0 == len(hashes) {
		hashes = defaultHashes
	}
	if 0 == len(ciphers) {
		ciphers = defaultCiphers
	}
	cmd.Schemes = makeSchemeList(patterns, defaultDh, hashes, ciphers, withPsk)
	cmd.Repeat = int(repeat)

	return &cmd
}

// vectorBundle is the top-level JSON/CBOR envelope: a run identifier plus
// every generated vector, so a downstream verifier can tell which run
// produced a given fixture file.
type vectorBundle struct {
	RunID   string             `json:"run_id"`
	Vectors []noise.TestVector `json:"vectors"`
}

func main() {
	cmd := parseFlags(os.Args[0], os.Args[1:])

	group, _ := errgroup.WithContext(context.Background())
	group.SetLimit(8)

	runID := uuid.NewString()
	logger.Info("generating vectors", "run_id", runID, "scheme_count", len(cmd.Schemes), "repeat", cmd.Repeat)

	vectors := make([][]noise.TestVector, len(cmd.Schemes))
	for i, schemename := range cmd.Schemes {
		i, schemename := i, schemename
		group.Go(func() error {
			perScheme := make([]noise.TestVector, 0, cmd.Repeat)
			for range cmd.Repeat {
				vector, err := fillVector(schemename, logger.With("scheme", schemename, "run_id", runID))
				if nil != err {
					return fmt.Errorf("failed generating vector for %s: %w", schemename, err)
				}
				perScheme = append(perScheme, vector)
			}
			vectors[i] = perScheme
			return nil
		})
	}
	if err := group.Wait(); nil != err {
		logger.Error("vector generation failed", "error", err)
		os.Exit(1)
	}

	bundle := vectorBundle{RunID: runID}
	for _, perScheme := range vectors {
		bundle.Vectors = append(bundle.Vectors, perScheme...)
	}

	if err := cmd.Out.Encode(bundle); nil != err {
		logger.Error("failed serializing vectors as JSON", "error", err)
		os.Exit(1)
	}

	if "" != cmd.CborPath {
		if err := writeCborBundle(cmd.CborPath, bundle); nil != err {
			logger.Error("failed writing CBOR vectors", "error", err)
			os.Exit(1)
		}
	}
	logger.Info("done", "run_id", runID, "vector_count", len(bundle.Vectors))
}

func dedent(multilines string) string {
	var sb strings.Builder
	for line := range strings.Lines(strings.TrimRightFunc(multilines, unicode.IsSpace)) {
		sb.WriteString(strings.TrimLeftFunc(line, unicode.IsSpace))
	}
	return sb.String()
}

func makeSchemeList(patterns, dhs, hashes, ciphers []string, withPsk bool) []string {
	var schemes []string
	for _, pattern := range patterns {
		for _, dh := range dhs {
			for _, hash := range hashes {
				for _, cipher := range ciphers {
					schemes = append(schemes, fmt.Sprintf("Noise_%s_%s_%s_%s", pattern, dh, hash, cipher))
					if withPsk {
						schemes = append(schemes, fmt.Sprintf("NoisePSK_%s_%s_%s_%s", pattern, dh, hash, cipher))
					}
				}
			}
		}
	}
	return schemes
}
