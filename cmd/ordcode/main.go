// ordcode is a command-line tool for inspecting ordcode encodings.
//
// Keys are described by a schema file listing typed fields:
//
//	# key.toml
//	[[fields]]
//	name = "tenant"
//	type = "u32"
//
//	[[fields]]
//	name = "stream"
//	type = "str"
//
// Usage:
//
//	ordcode encode --schema key.toml [--preset asc] 7 orders
//	ordcode decode --schema key.toml [--preset asc] [--format json|cbor] 000000076f72646572730d
//	ordcode size   --schema key.toml 7 orders
//	ordcode version
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/arloliu/ordcode"
	"github.com/arloliu/ordcode/internal/logging"
	"github.com/arloliu/ordcode/params"
)

func main() {
	logger := logging.ConfigureRuntime()
	defer func() { _ = logger.Sync() }()
	if err := logging.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}

	if err := run(os.Args[1:], os.Stdout, os.Stderr, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `ordcode: inspect order-preserving binary encodings

Commands:
  encode   encode values described by a schema, print hex
  decode   decode a hex encoding described by a schema
  size     print the exact encoded size of values
  version  print the format version and preset fingerprints

Run "ordcode <command> --help" for command flags.
`

func run(args []string, stdout, stderr io.Writer, logger *zap.Logger) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "encode":
		return runEncode(args[1:], stdout, stderr, logger)
	case "decode":
		return runDecode(args[1:], stdout, stderr, logger)
	case "size":
		return runSize(args[1:], stdout, stderr)
	case "version":
		return runVersion(stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags holds the flags shared by the schema-driven commands.
type commonFlags struct {
	schema string
	preset string
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&c.schema, "schema", "s", "", "schema file (.toml, .yaml or .yml)")
	fs.StringVarP(&c.preset, "preset", "p", "asc", "encoding preset: asc, desc, portable or native")
}

func (c *commonFlags) load() (*Schema, params.Params, error) {
	if c.schema == "" {
		return nil, params.Params{}, errors.New("--schema is required")
	}
	s, err := LoadSchema(c.schema)
	if err != nil {
		return nil, params.Params{}, err
	}
	p, err := params.Preset(c.preset)
	if err != nil {
		return nil, params.Params{}, err
	}

	return s, p, nil
}

func parseFlags(name string, fs *pflag.FlagSet, args []string, stderr io.Writer) (bool, error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}

		return false, fmt.Errorf("%s: %w", name, err)
	}

	return false, nil
}

func runEncode(args []string, stdout, stderr io.Writer, logger *zap.Logger) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	flags.add(fs)
	if help, err := parseFlags("encode", fs, args, stderr); help || err != nil {
		return err
	}

	s, p, err := flags.load()
	if err != nil {
		return err
	}
	rec, err := newRecord(s, fs.Args())
	if err != nil {
		return err
	}

	buf, err := ordcode.MarshalOrdered(rec, p)
	if err != nil {
		return err
	}
	logger.Debug("encoded", zap.Stringer("params", p), zap.Int("size", len(buf)))
	fmt.Fprintln(stdout, hex.EncodeToString(buf))

	return nil
}

func runDecode(args []string, stdout, stderr io.Writer, logger *zap.Logger) error {
	var flags commonFlags
	var format string
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	flags.add(fs)
	fs.StringVarP(&format, "format", "f", "json", "output format: json (non-finite floats as strings) or cbor (hex-encoded)")
	if help, err := parseFlags("decode", fs, args, stderr); help || err != nil {
		return err
	}

	s, p, err := flags.load()
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decode takes exactly one hex argument, got %d", fs.NArg())
	}
	data, err := hex.DecodeString(strings.TrimPrefix(fs.Arg(0), "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex input: %w", err)
	}

	rec := &record{schema: s}
	if err := ordcode.UnmarshalOrdered(data, rec, p); err != nil {
		return err
	}
	logger.Debug("decoded", zap.Stringer("params", p), zap.Int("size", len(data)))

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rec.named(true))
	case "cbor":
		out, err := cbor.Marshal(rec.named(false))
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, hex.EncodeToString(out))

		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func runSize(args []string, stdout, stderr io.Writer) error {
	var flags commonFlags
	fs := pflag.NewFlagSet("size", pflag.ContinueOnError)
	flags.add(fs)
	if help, err := parseFlags("size", fs, args, stderr); help || err != nil {
		return err
	}

	s, p, err := flags.load()
	if err != nil {
		return err
	}
	rec, err := newRecord(s, fs.Args())
	if err != nil {
		return err
	}

	n, err := ordcode.CalcSize(rec, p)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, n)

	return nil
}

func runVersion(stdout io.Writer) error {
	fmt.Fprintf(stdout, "format version %d\n", ordcode.FormatVersion)
	for _, name := range []string{"asc", "desc", "portable", "native"} {
		p, err := params.Preset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-9s %-20s %016x\n", name, p, p.Fingerprint())
	}

	return nil
}
