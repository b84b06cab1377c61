package opconf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/blacknovatech/jvmasm/parsers"
	"github.com/sirupsen/logrus"
)

// ArgType represents the type of an operand
type ArgType int8

const (
	// ArgByte represents a signed byte immediate
	ArgByte ArgType = iota
	// ArgShort represents a signed 16 bit immediate
	ArgShort
	// ArgVar represents a local variable index
	ArgVar
	// ArgConst represents a one byte constant pool index
	ArgConst
	// ArgRef represents a two byte constant pool index
	ArgRef
	// ArgLabel represents a branch offset, that requires further linking later on
	ArgLabel
)

// Width is the number of bytes the operand occupies in the code array.
func (a ArgType) Width() int {
	switch a {
	case ArgShort, ArgRef, ArgLabel:
		return 2
	default:
		return 1
	}
}

func (a ArgType) String() string {
	switch a {
	case ArgByte:
		return "byte"
	case ArgShort:
		return "short"
	case ArgVar:
		return "var"
	case ArgConst:
		return "constant"
	case ArgRef:
		return "ref"
	case ArgLabel:
		return "label"
	}
	return fmt.Sprintf("ArgType(%d)", int8(a))
}

// OpConfig represents the full suite of operations the assembler understands
type OpConfig struct {
	fileName   string
	scanner    *bufio.Scanner
	line       uint32
	operations map[string]*Operation
	byOpcode   map[uint8]*Operation
	errs       []string
}

// Operation is a single operation that the assembler can emit
type Operation struct {
	// Name is the mnemonic (e.g. bipush)
	Name string
	// Opcode is the byte representation (e.g. 0x10)
	Opcode uint8
	// Args is a variable list of ArgType that represents the operands the operation takes
	Args []ArgType
}

// Size is the encoded size of the operation in bytes, opcode included.
func (op *Operation) Size() int {
	n := 1
	for _, a := range op.Args {
		n += a.Width()
	}
	return n
}

// IsBranch reports whether the operation carries a branch offset.
func (op *Operation) IsBranch() bool {
	for _, a := range op.Args {
		if a == ArgLabel {
			return true
		}
	}
	return false
}

var (
	defaultOnce sync.Once
	defaultCfg  *OpConfig
)

// Default returns the operation table built from the embedded instruction set.
// The table is parsed once and shared.
func Default() *OpConfig {
	defaultOnce.Do(func() {
		cfg, err := NewOpConfig(strings.NewReader(defaultConfig), "default")
		if err != nil {
			panic(err)
		}
		defaultCfg = cfg
	})
	return defaultCfg
}

// NewOpConfig generates an OpConfig from the given source, optionally with the given name
func NewOpConfig(read io.Reader, name string) (*OpConfig, error) {
	config := &OpConfig{
		scanner:    bufio.NewScanner(read),
		fileName:   name,
		operations: make(map[string]*Operation),
		byOpcode:   make(map[uint8]*Operation),
	}

	config.parse()
	if len(config.errs) > 0 {
		return nil, fmt.Errorf("opconf %s: %s", name, strings.Join(config.errs, "; "))
	}

	return config, nil
}

// GetOp retrieves the operation corresponding to the given mnemonic
func (cfg *OpConfig) GetOp(opname string) *Operation {
	if op, ok := cfg.operations[strings.ToLower(opname)]; ok {
		return op
	}
	return nil
}

// ByOpcode retrieves the operation encoded by the given byte
func (cfg *OpConfig) ByOpcode(opcode uint8) *Operation {
	return cfg.byOpcode[opcode]
}

// Len is the number of operations in the table.
func (cfg *OpConfig) Len() int {
	return len(cfg.operations)
}

// Parses a configuration file
func (cfg *OpConfig) parse() {
	for tokens := cfg.next(); tokens != nil; tokens = cfg.next() {
		if len(tokens) == 0 {
			continue
		}
		logrus.Debug(cfg.Sprintf(strings.Join(tokens, " ")))

		if len(tokens) < 2 {
			cfg.Errorf("Missing operation name")
			continue
		}

		opcode, err := parsers.ParseUint8(tokens[0])
		if err != nil {
			cfg.Errorf("opcode: %s", err.Error())
			continue
		}

		if _, ok := cfg.byOpcode[opcode]; ok {
			cfg.Errorf("Duplicate opcode `%02X`", opcode)
			continue
		}

		opname := strings.ToLower(tokens[1])

		if _, ok := cfg.operations[opname]; ok {
			cfg.Errorf("Duplicate operation `%s`", opname)
			continue
		}

		args := make([]ArgType, len(tokens[2:]))
		for i, s := range tokens[2:] {
			args[i], err = parseArg(s)
			if err != nil {
				cfg.Errorf("argument: %s", err.Error())
			}
		}
		op := &Operation{
			Name:   opname,
			Opcode: opcode,
			Args:   args,
		}

		cfg.byOpcode[opcode] = op
		cfg.operations[opname] = op
		logrus.Debugf("Operation registered: %02X -> %s (%d)", op.Opcode, op.Name, len(op.Args))
	}
}

// Next token in config file
func (cfg *OpConfig) next() []string {
	if cfg.scanner.Scan() {
		cfg.line++
		return strings.Fields(strings.SplitN(cfg.scanner.Text(), "//", 2)[0])
	}
	return nil
}

// Parses argument type
func parseArg(str string) (arg ArgType, err error) {
	switch strings.ToLower(str) {
	case "byte":
		arg = ArgByte
	case "short":
		arg = ArgShort
	case "var":
		arg = ArgVar
	case "constant":
		arg = ArgConst
	case "ref":
		arg = ArgRef
	case "label":
		arg = ArgLabel
	default:
		err = fmt.Errorf("Unknown argument type `%s`", str)
	}
	return
}

// Sprintf formats given arguments, but prepends filename and line number.
func (cfg *OpConfig) Sprintf(format string, args ...interface{}) string {
	vars := append([]interface{}{cfg.fileName, cfg.line}, args...)
	return fmt.Sprintf("%s:%d > "+format, vars...)
}

// Errorf records a parse failure and logs it using OpConfig#Sprintf
func (cfg *OpConfig) Errorf(format string, args ...interface{}) {
	msg := cfg.Sprintf(format, args...)
	cfg.errs = append(cfg.errs, msg)
	logrus.Error(msg)
}
