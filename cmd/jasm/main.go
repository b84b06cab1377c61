package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/config"
	"github.com/blacknovatech/jvmasm/jasm"
)

var log = logging.MustGetLogger("main")
var (
	flagInfo    bool
	flagDebug   bool
	flagConfig  string
	flagOutput  string
	flagFormat  string
	flagVersion bool
)

// Linker Variables
var (
	Version   string
	BuildDate string
)

func init() {
	flag.BoolVarP(&flagInfo, "info", "i", false, "enable info message logging")
	flag.BoolVarP(&flagDebug, "debug", "d", false, "enable debug message logging")
	flag.StringVarP(&flagConfig, "config", "c", "", "specify a jasm.toml file (default: search upwards from the input)")
	flag.StringVarP(&flagOutput, "output", "o", "", "specify output file, - for stdout (default <Class>.class)")
	flag.StringVarP(&flagFormat, "format", "f", "", "output format: class or cbor (overrides the config)")
	flag.BoolVarP(&flagVersion, "version", "v", false, "output version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inputfile\n", os.Args[0])
		flag.PrintDefaults()
	}
}

// setup parses the command line and configures both loggers.
func setup() {
	flag.Parse()

	if flagVersion {
		printVersion()
		os.Exit(0)
	}

	format := logging.MustStringFormatter(`%{module:10.10s} [%{color}%{level:.4s}%{color:reset}] %{message}`)
	logging.SetFormatter(format)
	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))
	logrus.SetOutput(os.Stderr)
	if flagDebug {
		logging.SetLevel(logging.DEBUG, "")
		logrus.SetLevel(logrus.DebugLevel)
	} else if flagInfo {
		logging.SetLevel(logging.INFO, "")
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logging.SetLevel(logging.NOTICE, "")
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func main() {
	setup()
	args := flag.Args()
	if len(args) == 0 {
		log.Critical("Please specify a file to assemble")
		os.Exit(1)
	}
	input := args[0]

	cfg, err := loadConfig(input)
	if err != nil {
		log.Critical("%v", err)
		os.Exit(1)
	}
	if cfg.Path != "" {
		log.Infof("Using configuration %s", cfg.Path)
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Critical("%v", err)
		os.Exit(1)
	}

	inf, err := os.Open(input)
	if err != nil {
		log.Critical("Could not open input file:")
		log.Critical("%v", err)
		os.Exit(1)
	}
	defer inf.Close()

	asm := jasm.NewAssembler(inf, filepath.Base(input), opts)
	ok, err := asm.Parse()
	if err != nil {
		log.Critical("Assembly prematurely aborted:")
		log.Critical("%v", err)
		os.Exit(1)
	}
	if !ok {
		log.Critical("Assembly failed with %d errors", len(asm.Errors()))
		os.Exit(1)
	}

	output := flagOutput
	if output == "" {
		output = cfg.OutputPath(asm.ClassName())
	}

	if err := writeOutput(output, asm.Class(), cfg.Output.Format); err != nil {
		log.Critical("%v", err)
		os.Exit(1)
	}
	log.Noticef("Wrote %s", output)
}

// loadConfig reads the -c file, or the nearest jasm.toml above the input.
// The -f flag overrides the configured format.
func loadConfig(input string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.FindAndLoad(filepath.Dir(input))
	}
	if err != nil {
		return nil, err
	}

	if flagFormat != "" {
		cfg.Output.Format = flagFormat
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// writeOutput writes the result to path, or to stdout for "-". A file left
// incomplete by a failed write is removed.
func writeOutput(path string, cf *classfile.Classfile, format string) (err error) {
	if path == "-" {
		return writeResult(os.Stdout, cf, format)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	outf, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not open output file: %w", err)
	}
	defer func() {
		if cerr := outf.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	return writeResult(outf, cf, format)
}

func writeResult(out io.Writer, cf *classfile.Classfile, format string) error {
	switch format {
	case config.FormatCBOR:
		b, err := classfile.EncodeCBOR(cf)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	case config.FormatClass, "":
		return classfile.Write(out, cf)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func printVersion() {
	fmt.Printf("jasm version %s\n", Version)
	fmt.Printf("Built at: %s\n", BuildDate)
}
