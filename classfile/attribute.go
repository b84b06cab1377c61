package classfile

// Attribute names.
const (
	AttrCode            = "Code"
	AttrStackMapTable   = "StackMapTable"
	AttrLineNumberTable = "LineNumberTable"
	AttrSourceFile      = "SourceFile"
)

// Attribute is one of the attribute kinds the assembler produces. NameIndex
// points at the Utf8 entry holding the attribute's name.
type Attribute interface {
	AttributeNameIndex() uint16
}

// CodeAttribute holds a method body.
type CodeAttribute struct {
	NameIndex      uint16
	MaxStack       uint16
	MaxLocals      uint16
	Code           []Instruction
	ExceptionTable []ExceptionTableEntry
	Attributes     []Attribute
}

func (a *CodeAttribute) AttributeNameIndex() uint16 { return a.NameIndex }

// StackMapTable returns the nested stack map table, or nil.
func (a *CodeAttribute) StackMapTable() *StackMapTableAttribute {
	for _, n := range a.Attributes {
		if s, ok := n.(*StackMapTableAttribute); ok {
			return s
		}
	}
	return nil
}

// LineNumberTable returns the nested line number table, or nil.
func (a *CodeAttribute) LineNumberTable() *LineNumberTableAttribute {
	for _, n := range a.Attributes {
		if l, ok := n.(*LineNumberTableAttribute); ok {
			return l
		}
	}
	return nil
}

// ExceptionTableEntry is part of the schema but never populated by the
// assembler.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type StackMapTableAttribute struct {
	NameIndex uint16
	Entries   []StackMapFrame
}

func (a *StackMapTableAttribute) AttributeNameIndex() uint16 { return a.NameIndex }

type LineNumberTableAttribute struct {
	NameIndex uint16
	Entries   []LineNumberEntry
}

func (a *LineNumberTableAttribute) AttributeNameIndex() uint16 { return a.NameIndex }

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type SourceFileAttribute struct {
	NameIndex       uint16
	SourceFileIndex uint16
}

func (a *SourceFileAttribute) AttributeNameIndex() uint16 { return a.NameIndex }
