package classfile

import (
	"reflect"
	"testing"
)

func TestLookups(t *testing.T) {
	cf := sampleClass()

	if cf.LookupConstant(0) != nil || cf.LookupConstant(22) != nil {
		t.Error("out of range lookups should return nil")
	}
	if got := cf.LookupConstant(13); got != (ConstantInteger{Value: -7}) {
		t.Errorf("constant #13 = %v", got)
	}

	if s, err := cf.LookupString(5); err != nil || s != "add" {
		t.Errorf("LookupString(5) = %q, %v", s, err)
	}
	if _, err := cf.LookupString(2); err == nil {
		t.Error("LookupString of a Class entry should fail")
	}
	if name, err := cf.ClassName(cf.ThisClass); err != nil || name != "Foo" {
		t.Errorf("ClassName(this) = %q, %v", name, err)
	}
	if _, err := cf.ClassName(1); err == nil {
		t.Error("ClassName of a Utf8 entry should fail")
	}

	if m := cf.FindMethod("add", "(II)I"); m == nil || m.Code() == nil {
		t.Error("add(II)I not found")
	}
	if m := cf.FindMethod("add", "()V"); m != nil {
		t.Error("found add with the wrong descriptor")
	}
}

func TestInstructionWithOffset(t *testing.T) {
	goTo := Instruction{Opcode: Goto}
	patched, err := goTo.WithOffset(-12)
	if err != nil {
		t.Fatal(err)
	}
	if patched.Operand != -12 || goTo.Operand != 0 {
		t.Errorf("patched = %v, original = %v", patched, goTo)
	}

	if _, err := (Instruction{Opcode: Iadd}).WithOffset(3); err == nil {
		t.Error("patching iadd should fail")
	}
}

func TestCodeLength(t *testing.T) {
	code := []Instruction{
		{Opcode: Iload0},
		{Opcode: Bipush, Operand: 3},
		{Opcode: IfIcmpLt, Operand: 5},
		{Opcode: InvokeStatic, Operand: 9},
		{Opcode: Return},
	}
	if n := CodeLength(code); n != 1+2+3+3+1 {
		t.Errorf("CodeLength = %d, want 10", n)
	}
}

func TestVerificationTypeSlots(t *testing.T) {
	for vt, want := range map[VerificationType]int{
		IntegerType:          1,
		FloatType:            1,
		LongType:             2,
		DoubleType:           2,
		ObjectType(4):        1,
		UninitializedType(0): 1,
	} {
		if got := vt.Slots(); got != want {
			t.Errorf("%v.Slots() = %d, want %d", vt, got, want)
		}
	}
}

func TestCBORRoundTrip(t *testing.T) {
	cf := sampleClass()
	data, err := EncodeCBOR(cf)
	if err != nil {
		t.Fatalf("EncodeCBOR: %v", err)
	}
	again, err := EncodeCBOR(cf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(data, again) {
		t.Error("canonical encoding is not deterministic")
	}

	got, err := DecodeDump(data)
	if err != nil {
		t.Fatalf("DecodeDump: %v", err)
	}
	want := NewDump(cf)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decoded dump differs:\n got %+v\nwant %+v", got, want)
	}

	if got.SourceFile != 12 {
		t.Errorf("source file index = %d, want 12", got.SourceFile)
	}
	add := got.Methods[0].Code
	if add == nil || !reflect.DeepEqual(add.Code, []string{"iload_0", "iload_1", "iadd", "ireturn"}) {
		t.Errorf("add code = %+v", add)
	}
	loop := got.Methods[1].Code
	if len(loop.Frames) != 1 || loop.Frames[0].Kind != "same" {
		t.Errorf("loop frames = %+v", loop.Frames)
	}
	if c := got.Constants[16]; c.Kind != "methodref" || !reflect.DeepEqual(c.Refs, []uint16{2, 16}) {
		t.Errorf("constant #17 = %+v", c)
	}
}

func TestDecodeDumpRejectsGarbage(t *testing.T) {
	if _, err := DecodeDump([]byte{0xff, 0x00}); err == nil {
		t.Error("DecodeDump accepted garbage")
	}
}
