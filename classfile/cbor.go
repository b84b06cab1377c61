package classfile

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("classfile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Dump is a self-describing rendition of a Classfile, with every tagged
// variant spelled out by kind so that the structure survives a round trip
// through a schemaless encoding.
type Dump struct {
	MajorVersion uint16         `cbor:"major"`
	MinorVersion uint16         `cbor:"minor"`
	AccessFlags  uint16         `cbor:"access"`
	ThisClass    uint16         `cbor:"this"`
	SuperClass   uint16         `cbor:"super"`
	Constants    []DumpConstant `cbor:"constants"`
	Fields       []DumpMember   `cbor:"fields"`
	Methods      []DumpMember   `cbor:"methods"`
	SourceFile   uint16         `cbor:"source,omitempty"`
}

type DumpConstant struct {
	Index uint16   `cbor:"index"`
	Kind  string   `cbor:"kind"`
	Text  string   `cbor:"text,omitempty"`
	Int   int32    `cbor:"int,omitempty"`
	Float float32  `cbor:"float,omitempty"`
	Refs  []uint16 `cbor:"refs,omitempty"`
}

type DumpMember struct {
	AccessFlags uint16    `cbor:"access"`
	Name        uint16    `cbor:"name"`
	Descriptor  uint16    `cbor:"descriptor"`
	Code        *DumpCode `cbor:"code,omitempty"`
}

type DumpCode struct {
	MaxStack  uint16      `cbor:"maxStack"`
	MaxLocals uint16      `cbor:"maxLocals"`
	Code      []string    `cbor:"code"`
	Frames    []DumpFrame `cbor:"frames"`
	Lines     [][2]uint16 `cbor:"lines,omitempty"`
}

type DumpFrame struct {
	Kind  string   `cbor:"kind"`
	Delta uint16   `cbor:"delta"`
	Stack []string `cbor:"stack,omitempty"`
}

// EncodeCBOR renders the class description as canonical CBOR.
func EncodeCBOR(cf *Classfile) ([]byte, error) {
	return cborEncMode.Marshal(NewDump(cf))
}

// DecodeDump reads back a document written by EncodeCBOR.
func DecodeDump(data []byte) (*Dump, error) {
	var d Dump
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("classfile: unmarshal dump: %w", err)
	}
	return &d, nil
}

// NewDump builds the self-describing form of cf.
func NewDump(cf *Classfile) *Dump {
	d := &Dump{
		MajorVersion: cf.MajorVersion,
		MinorVersion: cf.MinorVersion,
		AccessFlags:  cf.AccessFlags,
		ThisClass:    cf.ThisClass,
		SuperClass:   cf.SuperClass,
	}

	for i, c := range cf.ConstantPool {
		d.Constants = append(d.Constants, dumpConstant(uint16(i+1), c))
	}
	for _, f := range cf.Fields {
		d.Fields = append(d.Fields, DumpMember{AccessFlags: f.AccessFlags, Name: f.NameIndex, Descriptor: f.DescriptorIndex})
	}
	for i := range cf.Methods {
		m := &cf.Methods[i]
		dm := DumpMember{AccessFlags: m.AccessFlags, Name: m.NameIndex, Descriptor: m.DescriptorIndex}
		if code := m.Code(); code != nil {
			dm.Code = dumpCode(code)
		}
		d.Methods = append(d.Methods, dm)
	}
	for _, a := range cf.Attributes {
		if sf, ok := a.(*SourceFileAttribute); ok {
			d.SourceFile = sf.SourceFileIndex
		}
	}
	return d
}

func dumpConstant(index uint16, c Constant) DumpConstant {
	dc := DumpConstant{Index: index}
	switch v := c.(type) {
	case ConstantUtf8:
		dc.Kind, dc.Text = "utf8", v.Value
	case ConstantInteger:
		dc.Kind, dc.Int = "integer", v.Value
	case ConstantFloat:
		dc.Kind, dc.Float = "float", v.Value
	case ConstantClass:
		dc.Kind, dc.Refs = "class", []uint16{v.NameIndex}
	case ConstantString:
		dc.Kind, dc.Refs = "string", []uint16{v.StringIndex}
	case ConstantFieldref:
		dc.Kind, dc.Refs = "fieldref", []uint16{v.ClassIndex, v.NameAndTypeIndex}
	case ConstantMethodref:
		dc.Kind, dc.Refs = "methodref", []uint16{v.ClassIndex, v.NameAndTypeIndex}
	case ConstantNameAndType:
		dc.Kind, dc.Refs = "nameandtype", []uint16{v.NameIndex, v.DescriptorIndex}
	default:
		dc.Kind = fmt.Sprintf("%T", c)
	}
	return dc
}

func dumpCode(code *CodeAttribute) *DumpCode {
	dc := &DumpCode{MaxStack: code.MaxStack, MaxLocals: code.MaxLocals}
	for _, ins := range code.Code {
		dc.Code = append(dc.Code, ins.String())
	}
	if smt := code.StackMapTable(); smt != nil {
		for _, f := range smt.Entries {
			dc.Frames = append(dc.Frames, dumpFrame(f))
		}
	}
	if lnt := code.LineNumberTable(); lnt != nil {
		for _, e := range lnt.Entries {
			dc.Lines = append(dc.Lines, [2]uint16{e.StartPC, e.LineNumber})
		}
	}
	return dc
}

func dumpFrame(f StackMapFrame) DumpFrame {
	df := DumpFrame{Delta: f.Delta()}
	switch v := f.(type) {
	case SameFrame:
		df.Kind = "same"
	case SameFrameExtended:
		df.Kind = "same_extended"
	case SameLocals1StackItemFrame:
		df.Kind, df.Stack = "same_locals_1_stack_item", []string{v.Stack.String()}
	case SameLocals1StackItemFrameExtended:
		df.Kind, df.Stack = "same_locals_1_stack_item_extended", []string{v.Stack.String()}
	case ChopFrame:
		df.Kind = "chop"
	case AppendFrame:
		df.Kind = "append"
	case FullFrame:
		df.Kind = "full"
		for _, s := range v.Stack {
			df.Stack = append(df.Stack, s.String())
		}
	}
	return df
}
