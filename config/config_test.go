package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blacknovatech/jvmasm/classbuilder"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[class]
major-version = 50
minor-version = 1

[assembler]
stack = "legacy"
locals = "per-store"

[output]
format = "cbor"
dir = "out"
`
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Path != path {
		t.Errorf("path = %q, want %q", c.Path, path)
	}
	if c.Output.Format != FormatCBOR || c.Output.Dir != "out" {
		t.Errorf("output = %+v, want cbor into out", c.Output)
	}

	opts, err := c.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := classbuilder.Options{
		MajorVersion: 50,
		MinorVersion: 1,
		Stack:        classbuilder.StackLegacy,
		Locals:       classbuilder.LocalsPerStore,
	}
	if opts != want {
		t.Errorf("options = %+v, want %+v", opts, want)
	}

	if got := c.OutputPath("com/example/Foo"); got != filepath.Join("out", "com", "example", "Foo.cbor") {
		t.Errorf("output path = %q", got)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse(`
[assembler]
stack = "legacy"
`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	opts, _ := c.Options()
	want := classbuilder.DefaultOptions()
	want.Stack = classbuilder.StackLegacy
	if opts != want {
		t.Errorf("options = %+v, want %+v", opts, want)
	}
	if c.Output.Format != FormatClass {
		t.Errorf("format = %q, want class", c.Output.Format)
	}
	if got := c.OutputPath("Foo"); got != "Foo.class" {
		t.Errorf("output path = %q, want Foo.class", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"unknown key", "[class]\nmajor = 52\n", "unknown keys: class.major"},
		{"bad stack mode", "[assembler]\nstack = \"exact\"\n", "stack mode"},
		{"bad locals mode", "[assembler]\nlocals = \"max\"\n", "locals mode"},
		{"bad format", "[output]\nformat = \"jar\"\n", "output format"},
		{"old version", "[class]\nmajor-version = 12\n", "major version"},
		{"not toml", "[class\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.toml)
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want one mentioning %q", err, tt.want)
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad without a file: %v", err)
	}
	if c.Path != "" {
		t.Errorf("found %s in an empty tree", c.Path)
	}

	path := filepath.Join(root, FileName)
	if err := os.WriteFile(path, []byte("[output]\ndir = \"build\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err = FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c.Path != path || c.Output.Dir != "build" {
		t.Errorf("loaded %q with dir %q, want %q with build", c.Path, c.Output.Dir, path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), FileName)); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}
