package classfile

import (
	"fmt"

	"github.com/blacknovatech/jvmasm/opconf"
)

// Opcode identifies one instruction of the supported instruction set.
type Opcode uint8

const (
	Nop           Opcode = 0x00
	AconstNull    Opcode = 0x01
	IconstM1      Opcode = 0x02
	Iconst0       Opcode = 0x03
	Iconst1       Opcode = 0x04
	Iconst2       Opcode = 0x05
	Iconst3       Opcode = 0x06
	Iconst4       Opcode = 0x07
	Iconst5       Opcode = 0x08
	Fconst0       Opcode = 0x0b
	Fconst1       Opcode = 0x0c
	Fconst2       Opcode = 0x0d
	Bipush        Opcode = 0x10
	Sipush        Opcode = 0x11
	Ldc           Opcode = 0x12
	Iload         Opcode = 0x15
	Fload         Opcode = 0x17
	Aload         Opcode = 0x19
	Iload0        Opcode = 0x1a
	Iload1        Opcode = 0x1b
	Iload2        Opcode = 0x1c
	Iload3        Opcode = 0x1d
	Fload0        Opcode = 0x22
	Fload1        Opcode = 0x23
	Fload2        Opcode = 0x24
	Fload3        Opcode = 0x25
	Aload0        Opcode = 0x2a
	Aload1        Opcode = 0x2b
	Aload2        Opcode = 0x2c
	Aload3        Opcode = 0x2d
	Aaload        Opcode = 0x32
	Istore        Opcode = 0x36
	Fstore        Opcode = 0x38
	Astore        Opcode = 0x3a
	Istore0       Opcode = 0x3b
	Istore1       Opcode = 0x3c
	Istore2       Opcode = 0x3d
	Istore3       Opcode = 0x3e
	Fstore0       Opcode = 0x43
	Fstore1       Opcode = 0x44
	Fstore2       Opcode = 0x45
	Fstore3       Opcode = 0x46
	Astore0       Opcode = 0x4b
	Astore1       Opcode = 0x4c
	Astore2       Opcode = 0x4d
	Astore3       Opcode = 0x4e
	Pop           Opcode = 0x57
	Dup           Opcode = 0x59
	Iadd          Opcode = 0x60
	Fadd          Opcode = 0x62
	Isub          Opcode = 0x64
	Fsub          Opcode = 0x66
	Imul          Opcode = 0x68
	Fmul          Opcode = 0x6a
	Idiv          Opcode = 0x6c
	Fdiv          Opcode = 0x6e
	Irem          Opcode = 0x70
	Frem          Opcode = 0x72
	Ineg          Opcode = 0x74
	Fneg          Opcode = 0x76
	I2F           Opcode = 0x86
	F2I           Opcode = 0x8b
	I2C           Opcode = 0x92
	Fcmpl         Opcode = 0x95
	Fcmpg         Opcode = 0x96
	IfEq          Opcode = 0x99
	IfNe          Opcode = 0x9a
	IfLt          Opcode = 0x9b
	IfGe          Opcode = 0x9c
	IfGt          Opcode = 0x9d
	IfLe          Opcode = 0x9e
	IfIcmpEq      Opcode = 0x9f
	IfIcmpNe      Opcode = 0xa0
	IfIcmpLt      Opcode = 0xa1
	IfIcmpGe      Opcode = 0xa2
	IfIcmpGt      Opcode = 0xa3
	IfIcmpLe      Opcode = 0xa4
	Goto          Opcode = 0xa7
	Ireturn       Opcode = 0xac
	Freturn       Opcode = 0xae
	Areturn       Opcode = 0xb0
	Return        Opcode = 0xb1
	GetStatic     Opcode = 0xb2
	PutStatic     Opcode = 0xb3
	GetField      Opcode = 0xb4
	PutField      Opcode = 0xb5
	InvokeVirtual Opcode = 0xb6
	InvokeSpecial Opcode = 0xb7
	InvokeStatic  Opcode = 0xb8
	New           Opcode = 0xbb
	ArrayLength   Opcode = 0xbe
)

// Operation returns the table entry for op, or nil if op is not part of the
// supported instruction set.
func (op Opcode) Operation() *opconf.Operation {
	return opconf.Default().ByOpcode(uint8(op))
}

// Size is the fixed encoded size of op in bytes.
func (op Opcode) Size() int {
	if o := op.Operation(); o != nil {
		return o.Size()
	}
	return 1
}

// IsBranch reports whether op carries a 16 bit branch offset.
func (op Opcode) IsBranch() bool {
	o := op.Operation()
	return o != nil && o.IsBranch()
}

func (op Opcode) String() string {
	if o := op.Operation(); o != nil {
		return o.Name
	}
	return fmt.Sprintf("opcode(%#02x)", uint8(op))
}

// Instruction is a single resolved instruction. Operand holds the immediate
// value, local index, pool index or branch offset, as dictated by the
// opcode's operand kind; it is ignored for opcodes without operands.
type Instruction struct {
	Opcode  Opcode
	Operand int32
}

// Size is the encoded size of the instruction, independent of its operand.
func (i Instruction) Size() int {
	return i.Opcode.Size()
}

// WithOffset returns a copy of a branch instruction carrying the given offset.
func (i Instruction) WithOffset(offset int16) (Instruction, error) {
	if !i.Opcode.IsBranch() {
		return i, fmt.Errorf("%s has no branch offset", i.Opcode)
	}
	i.Operand = int32(offset)
	return i, nil
}

func (i Instruction) String() string {
	o := i.Opcode.Operation()
	if o == nil || len(o.Args) == 0 {
		return i.Opcode.String()
	}
	return fmt.Sprintf("%s %d", i.Opcode, i.Operand)
}

// CodeLength is the total encoded size of the instructions.
func CodeLength(code []Instruction) int {
	n := 0
	for _, i := range code {
		n += i.Size()
	}
	return n
}
