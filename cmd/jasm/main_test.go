package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blacknovatech/jvmasm/classbuilder"
	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/config"
	"github.com/blacknovatech/jvmasm/jasm"
)

const program = `
.class public Hello
.method public static main ([Ljava/lang/String;)V
#print "hi"
    return
.end-method
`

func hello(t *testing.T) *classfile.Classfile {
	t.Helper()
	cf, err := jasm.Assemble(strings.NewReader(program), "Hello.jasm", classbuilder.DefaultOptions())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return cf
}

func TestWriteResult(t *testing.T) {
	cf := hello(t)

	var buf bytes.Buffer
	if err := writeResult(&buf, cf, config.FormatClass); err != nil {
		t.Fatalf("class: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte{0xca, 0xfe, 0xba, 0xbe}) {
		t.Errorf("class output lacks magic: % x", buf.Bytes()[:4])
	}

	buf.Reset()
	if err := writeResult(&buf, cf, config.FormatCBOR); err != nil {
		t.Fatalf("cbor: %v", err)
	}
	dump, err := classfile.DecodeDump(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeDump: %v", err)
	}
	if len(dump.Methods) != 1 {
		t.Errorf("%d methods in dump, want 1", len(dump.Methods))
	}

	if err := writeResult(&buf, cf, "jar"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "src", "Hello.jasm")
	if err := os.MkdirAll(filepath.Dir(input), 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "[output]\nformat = \"cbor\"\ndir = \"out\"\n"
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	defer func() { flagConfig, flagFormat = "", "" }()

	cfg, err := loadConfig(input)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Output.Format != config.FormatCBOR {
		t.Errorf("format = %q, want cbor", cfg.Output.Format)
	}
	if got, want := cfg.OutputPath("pkg/Hello"), filepath.Join("out", "pkg", "Hello.cbor"); got != want {
		t.Errorf("output path = %q, want %q", got, want)
	}

	flagFormat = config.FormatClass
	if cfg, err = loadConfig(input); err != nil || cfg.Output.Format != config.FormatClass {
		t.Errorf("format override = %v, %v", cfg, err)
	}

	flagFormat = "jar"
	if _, err := loadConfig(input); err == nil {
		t.Error("unknown format accepted")
	}

	flagFormat = ""
	flagConfig = filepath.Join(dir, "missing.toml")
	if _, err := loadConfig(input); err == nil {
		t.Error("missing config accepted")
	}
}

func TestWriteOutput(t *testing.T) {
	cf := hello(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "out", "Hello.class")
	if err := writeOutput(path, cf, config.FormatClass); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if want, _ := cf.Bytes(); !bytes.Equal(b, want) {
		t.Errorf("written %d bytes, want %d", len(b), len(want))
	}

	failed := filepath.Join(dir, "out", "Broken.class")
	if err := writeOutput(failed, cf, "jar"); err == nil {
		t.Fatal("unknown format accepted")
	}
	if _, err := os.Stat(failed); !os.IsNotExist(err) {
		t.Errorf("failed output left on disk: %v", err)
	}
}
