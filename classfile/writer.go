package classfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"github.com/blacknovatech/jvmasm/opconf"
)

// Write encodes the class description in the class file format.
// Returns error iff any write fails or the structure cannot be encoded.
func Write(out io.Writer, cf *Classfile) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case string:
				err = errors.New(x)
			case error:
				err = x
			default:
				err = errors.New("Unknown generation failure")
			}
		}
	}()

	mustWrite(out, cf.Magic)
	mustWrite(out, cf.MinorVersion)
	mustWrite(out, cf.MajorVersion)

	mustWrite(out, u16(len(cf.ConstantPool)+1, "constant pool count"))
	for i, c := range cf.ConstantPool {
		writeConstant(out, uint16(i+1), c)
	}

	mustWrite(out, cf.AccessFlags)
	mustWrite(out, cf.ThisClass)
	mustWrite(out, cf.SuperClass)

	mustWrite(out, u16(len(cf.Interfaces), "interface count"))
	for _, i := range cf.Interfaces {
		mustWrite(out, i)
	}

	mustWrite(out, u16(len(cf.Fields), "field count"))
	for _, f := range cf.Fields {
		mustWrite(out, f.AccessFlags)
		mustWrite(out, f.NameIndex)
		mustWrite(out, f.DescriptorIndex)
		writeAttributes(out, f.Attributes)
	}

	mustWrite(out, u16(len(cf.Methods), "method count"))
	for _, m := range cf.Methods {
		mustWrite(out, m.AccessFlags)
		mustWrite(out, m.NameIndex)
		mustWrite(out, m.DescriptorIndex)
		writeAttributes(out, m.Attributes)
	}

	writeAttributes(out, cf.Attributes)
	return
}

// Bytes encodes the class description into a fresh buffer.
func (cf *Classfile) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, cf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeConstant(out io.Writer, index uint16, c Constant) {
	mustWrite(out, uint8(c.Tag()))
	switch v := c.(type) {
	case ConstantUtf8:
		enc := modifiedUTF8(v.Value)
		mustWrite(out, u16(len(enc), "utf8 length"))
		mustWrite(out, enc)
	case ConstantInteger:
		mustWrite(out, v.Value)
	case ConstantFloat:
		mustWrite(out, math.Float32bits(v.Value))
	case ConstantClass:
		mustWrite(out, v.NameIndex)
	case ConstantString:
		mustWrite(out, v.StringIndex)
	case ConstantFieldref:
		mustWrite(out, v.ClassIndex)
		mustWrite(out, v.NameAndTypeIndex)
	case ConstantMethodref:
		mustWrite(out, v.ClassIndex)
		mustWrite(out, v.NameAndTypeIndex)
	case ConstantNameAndType:
		mustWrite(out, v.NameIndex)
		mustWrite(out, v.DescriptorIndex)
	default:
		panic(fmt.Errorf("constant #%d: cannot encode %T", index, c))
	}
}

func writeAttributes(out io.Writer, attrs []Attribute) {
	mustWrite(out, u16(len(attrs), "attribute count"))
	for _, a := range attrs {
		var body bytes.Buffer
		writeAttributeBody(&body, a)
		mustWrite(out, a.AttributeNameIndex())
		mustWrite(out, uint32(body.Len()))
		mustWrite(out, body.Bytes())
	}
}

func writeAttributeBody(out io.Writer, a Attribute) {
	switch v := a.(type) {
	case *CodeAttribute:
		mustWrite(out, v.MaxStack)
		mustWrite(out, v.MaxLocals)
		var code bytes.Buffer
		for _, ins := range v.Code {
			writeInstruction(&code, ins)
		}
		mustWrite(out, uint32(code.Len()))
		mustWrite(out, code.Bytes())
		mustWrite(out, u16(len(v.ExceptionTable), "exception table length"))
		for _, e := range v.ExceptionTable {
			mustWrite(out, e)
		}
		writeAttributes(out, v.Attributes)
	case *StackMapTableAttribute:
		mustWrite(out, u16(len(v.Entries), "stack map entries"))
		for i, f := range v.Entries {
			writeFrame(out, i == 0, f)
		}
	case *LineNumberTableAttribute:
		mustWrite(out, u16(len(v.Entries), "line number entries"))
		for _, e := range v.Entries {
			mustWrite(out, e)
		}
	case *SourceFileAttribute:
		mustWrite(out, v.SourceFileIndex)
	default:
		panic(fmt.Errorf("cannot encode attribute %T", a))
	}
}

func writeInstruction(out io.Writer, ins Instruction) {
	op := ins.Opcode.Operation()
	if op == nil {
		panic(fmt.Errorf("unknown opcode %#02x", uint8(ins.Opcode)))
	}
	mustWrite(out, op.Opcode)
	for _, arg := range op.Args {
		switch arg {
		case opconf.ArgByte:
			mustWrite(out, int8(ins.Operand))
		case opconf.ArgVar, opconf.ArgConst:
			mustWrite(out, uint8(ins.Operand))
		case opconf.ArgShort, opconf.ArgLabel:
			mustWrite(out, int16(ins.Operand))
		case opconf.ArgRef:
			mustWrite(out, uint16(ins.Operand))
		default:
			panic("Unimplemented")
		}
	}
}

// writeFrame encodes a frame. The format stores offset_delta as the distance
// minus one for every frame but the first, and only has compact frame types
// for deltas up to 63.
func writeFrame(out io.Writer, first bool, f StackMapFrame) {
	d := f.Delta()
	if !first {
		if d == 0 {
			panic(errors.New("stack map frames share an offset"))
		}
		d--
	}

	switch v := f.(type) {
	case SameFrame, SameFrameExtended:
		if d <= 63 {
			mustWrite(out, uint8(d))
		} else {
			mustWrite(out, uint8(251))
			mustWrite(out, d)
		}
	case SameLocals1StackItemFrame:
		writeStackItemFrame(out, d, v.Stack)
	case SameLocals1StackItemFrameExtended:
		writeStackItemFrame(out, d, v.Stack)
	case ChopFrame:
		if v.K < 1 || v.K > 3 {
			panic(fmt.Errorf("chop frame of %d locals", v.K))
		}
		mustWrite(out, uint8(251-v.K))
		mustWrite(out, d)
	case AppendFrame:
		if len(v.Locals) < 1 || len(v.Locals) > 3 {
			panic(fmt.Errorf("append frame of %d locals", len(v.Locals)))
		}
		mustWrite(out, uint8(251+len(v.Locals)))
		mustWrite(out, d)
		writeVerificationTypes(out, v.Locals)
	case FullFrame:
		mustWrite(out, uint8(255))
		mustWrite(out, d)
		mustWrite(out, u16(len(v.Locals), "frame locals"))
		writeVerificationTypes(out, v.Locals)
		mustWrite(out, u16(len(v.Stack), "frame stack"))
		writeVerificationTypes(out, v.Stack)
	default:
		panic(fmt.Errorf("cannot encode frame %T", f))
	}
}

func writeStackItemFrame(out io.Writer, d uint16, vt VerificationType) {
	if d <= 63 {
		mustWrite(out, uint8(64+d))
	} else {
		mustWrite(out, uint8(247))
		mustWrite(out, d)
	}
	writeVerificationTypes(out, []VerificationType{vt})
}

func writeVerificationTypes(out io.Writer, vts []VerificationType) {
	for _, vt := range vts {
		mustWrite(out, uint8(vt.Tag))
		if vt.Tag == VObject || vt.Tag == VUninitialized {
			mustWrite(out, vt.Index)
		}
	}
}

// modifiedUTF8 encodes s the way class files store strings: NUL as two bytes
// and supplementary characters as surrogate pairs.
func modifiedUTF8(s string) []byte {
	var b []byte
	for _, r := range s {
		switch {
		case r != 0 && r < 0x80:
			b = append(b, byte(r))
		case r < 0x800:
			b = append(b, byte(0xc0|r>>6), byte(0x80|r&0x3f))
		case r < 0x10000:
			b = appendThreeByte(b, r)
		default:
			hi, lo := utf16.EncodeRune(r)
			b = appendThreeByte(b, hi)
			b = appendThreeByte(b, lo)
		}
	}
	return b
}

func appendThreeByte(b []byte, r rune) []byte {
	return append(b, byte(0xe0|r>>12), byte(0x80|(r>>6)&0x3f), byte(0x80|r&0x3f))
}

func u16(n int, what string) uint16 {
	if n > math.MaxUint16 {
		panic(fmt.Errorf("%s %d exceeds 65535", what, n))
	}
	return uint16(n)
}

func mustWrite(out io.Writer, data interface{}) {
	err := binary.Write(out, binary.BigEndian, data)
	if err != nil {
		panic(err)
	}
}
