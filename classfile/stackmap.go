package classfile

import "fmt"

// VerificationTag identifies a verification type category.
type VerificationTag uint8

const (
	VTop               VerificationTag = 0
	VInteger           VerificationTag = 1
	VFloat             VerificationTag = 2
	VDouble            VerificationTag = 3
	VLong              VerificationTag = 4
	VNull              VerificationTag = 5
	VUninitializedThis VerificationTag = 6
	VObject            VerificationTag = 7
	VUninitialized     VerificationTag = 8
)

// VerificationType is a stack map frame payload. Index is the Class pool
// index for VObject and the offset of the creating `new` for VUninitialized.
type VerificationType struct {
	Tag   VerificationTag
	Index uint16
}

var (
	TopType               = VerificationType{Tag: VTop}
	IntegerType           = VerificationType{Tag: VInteger}
	FloatType             = VerificationType{Tag: VFloat}
	LongType              = VerificationType{Tag: VLong}
	DoubleType            = VerificationType{Tag: VDouble}
	NullType              = VerificationType{Tag: VNull}
	UninitializedThisType = VerificationType{Tag: VUninitializedThis}
)

// ObjectType is a reference to an instance of the class at classIndex.
func ObjectType(classIndex uint16) VerificationType {
	return VerificationType{Tag: VObject, Index: classIndex}
}

// UninitializedType is the result of the `new` at offset.
func UninitializedType(offset uint16) VerificationType {
	return VerificationType{Tag: VUninitialized, Index: offset}
}

// Slots is the number of operand stack words the type occupies.
func (v VerificationType) Slots() int {
	if v.Tag == VLong || v.Tag == VDouble {
		return 2
	}
	return 1
}

func (v VerificationType) String() string {
	switch v.Tag {
	case VTop:
		return "top"
	case VInteger:
		return "int"
	case VFloat:
		return "float"
	case VLong:
		return "long"
	case VDouble:
		return "double"
	case VNull:
		return "null"
	case VUninitializedThis:
		return "uninitializedThis"
	case VObject:
		return fmt.Sprintf("object(#%d)", v.Index)
	case VUninitialized:
		return fmt.Sprintf("uninitialized(%d)", v.Index)
	}
	return fmt.Sprintf("verification(%d)", v.Tag)
}

// StackMapFrame is one entry of a StackMapTable. Delta is the distance in
// bytes from the previous frame's offset, or from the start of the method for
// the first frame.
type StackMapFrame interface {
	Delta() uint16
}

type SameFrame struct {
	OffsetDelta uint8
}

func (f SameFrame) Delta() uint16 { return uint16(f.OffsetDelta) }

type SameFrameExtended struct {
	OffsetDelta uint16
}

func (f SameFrameExtended) Delta() uint16 { return f.OffsetDelta }

type SameLocals1StackItemFrame struct {
	OffsetDelta uint8
	Stack       VerificationType
}

func (f SameLocals1StackItemFrame) Delta() uint16 { return uint16(f.OffsetDelta) }

type SameLocals1StackItemFrameExtended struct {
	OffsetDelta uint16
	Stack       VerificationType
}

func (f SameLocals1StackItemFrameExtended) Delta() uint16 { return f.OffsetDelta }

// ChopFrame removes the last K (1-3) locals.
type ChopFrame struct {
	K           uint8
	OffsetDelta uint16
}

func (f ChopFrame) Delta() uint16 { return f.OffsetDelta }

// AppendFrame adds 1-3 locals.
type AppendFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
}

func (f AppendFrame) Delta() uint16 { return f.OffsetDelta }

type FullFrame struct {
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

func (f FullFrame) Delta() uint16 { return f.OffsetDelta }
