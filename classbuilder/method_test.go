package classbuilder

import (
	"errors"
	"testing"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

var (
	intArgs2 = []descriptor.Type{descriptor.Int, descriptor.Int}
	stringT  = descriptor.Object("java/lang/String")
)

// assemble builds Foo with a single method and returns the class and its code.
func assemble(t *testing.T, opts Options, access uint16, name string, args []descriptor.Type, ret descriptor.Type, body func(m *MethodBuilder)) (*classfile.Classfile, *classfile.CodeAttribute) {
	t.Helper()
	cb := newFoo(t, opts)
	m, err := cb.DefineMethod(access, name, args, ret)
	if err != nil {
		t.Fatalf("DefineMethod: %v", err)
	}
	body(m)
	if err := m.Done(); err != nil {
		t.Fatalf("method Done: %v", err)
	}
	cf, err := cb.Done()
	if err != nil {
		t.Fatalf("class Done: %v", err)
	}
	meth := cf.FindMethod(name, descriptor.Method(args, ret))
	if meth == nil {
		t.Fatalf("method %s not found", name)
	}
	return cf, meth.Code()
}

func poolHas(cf *classfile.Classfile, c classfile.Constant) bool {
	for _, e := range cf.ConstantPool {
		if e == c {
			return true
		}
	}
	return false
}

func TestSimpleClass(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), LegacyOptions()} {
		t.Run(opts.Stack.String(), func(t *testing.T) {
			cf, code := assemble(t, opts, classfile.AccPublic|classfile.AccStatic, "add", intArgs2, descriptor.Int, func(m *MethodBuilder) {
				m.Iload0()
				m.Iload1()
				m.Iadd()
				m.Ireturn()
			})

			for _, s := range []string{"Foo", "java/lang/Object", "add", "(II)I"} {
				if !poolHas(cf, classfile.ConstantUtf8{Value: s}) {
					t.Errorf("pool lacks Utf8 %q", s)
				}
			}
			if this, _ := cf.ClassName(cf.ThisClass); this != "Foo" {
				t.Errorf("this class = %q, want Foo", this)
			}
			if super, _ := cf.ClassName(cf.SuperClass); super != "java/lang/Object" {
				t.Errorf("super class = %q, want java/lang/Object", super)
			}

			if n := classfile.CodeLength(code.Code); n != 4 {
				t.Errorf("code length = %d, want 4", n)
			}
			if smt := code.StackMapTable(); smt == nil || len(smt.Entries) != 0 {
				t.Errorf("stack map table = %v, want present and empty", smt)
			}
			if len(code.ExceptionTable) != 0 {
				t.Errorf("exception table = %v, want empty", code.ExceptionTable)
			}
			if code.MaxLocals != 2 {
				t.Errorf("max locals = %d, want 2", code.MaxLocals)
			}

			wantStack := uint16(2)
			if opts.Stack == StackLegacy {
				wantStack = 0
			}
			if code.MaxStack != wantStack {
				t.Errorf("max stack = %d, want %d", code.MaxStack, wantStack)
			}
		})
	}
}

func TestSizeFidelity(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, err := cb.DefineMethod(classfile.AccStatic, "sizes", nil, descriptor.Void)
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		op   classfile.Opcode
		emit func()
	}{
		{classfile.Iconst1, m.Iconst1},
		{classfile.Bipush, func() { m.Bipush(-7) }},
		{classfile.Sipush, func() { m.Sipush(1000) }},
		{classfile.Iadd, m.Iadd},
		{classfile.Istore, func() { m.Istore(4) }},
		{classfile.Iload, func() { m.Iload(4) }},
		{classfile.IfEq, func() { m.IfEq("end") }},
		{classfile.Ldc, func() { _ = m.LdcInt(123456) }},
		{classfile.GetStatic, func() { _ = m.GetStatic("java/lang/System", "out", descriptor.Object("java/io/PrintStream")) }},
		{classfile.Ldc, func() { _ = m.Ldc("hi") }},
		{classfile.InvokeVirtual, func() {
			_ = m.InvokeVirtual("java/io/PrintStream", "println", []descriptor.Type{stringT}, descriptor.Void)
		}},
		{classfile.Goto, func() { m.Goto("end") }},
		{classfile.New, func() { _ = m.New("java/lang/Object") }},
		{classfile.Pop, m.Pop},
		{classfile.Return, m.Return},
	}

	for _, s := range steps {
		before := m.Offset()
		s.emit()
		if got, want := m.Offset()-before, s.op.Size(); got != want {
			t.Errorf("%s advanced the cursor by %d, want %d", s.op, got, want)
		}
	}

	for i := 1; i < len(m.code); i++ {
		prev := m.code[i-1]
		ins, _ := prev.ir.resolve(prev.pos, map[labelKey]int{{"end", 0}: 0})
		if m.code[i].pos != prev.pos+ins.Size() {
			t.Errorf("instruction %d at %d, want %d", i, m.code[i].pos, prev.pos+ins.Size())
		}
	}
}

func TestForwardBranch(t *testing.T) {
	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "max", intArgs2, descriptor.Int, func(m *MethodBuilder) {
		m.Iload0()
		m.Iload1()
		m.IfIcmpEq("k") // at 2
		m.Bipush(9)
		m.Pop()
		m.Iconst0()
		m.Pop()
		if err := m.Label("k"); err != nil { // at 10
			t.Fatal(err)
		}
		m.Iload0()
		m.Ireturn()
	})

	if code.Code[2].Opcode != classfile.IfIcmpEq {
		t.Fatalf("instruction 2 is %s", code.Code[2].Opcode)
	}
	if got := code.Code[2].Operand; got != 8 {
		t.Errorf("if_icmpeq offset = %d, want 8", got)
	}
}

func TestBackwardBranch(t *testing.T) {
	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "spin", nil, descriptor.Void, func(m *MethodBuilder) {
		m.Nop()
		if err := m.Label("top"); err != nil { // at 1
			t.Fatal(err)
		}
		m.Iconst0()
		m.Pop()
		m.Goto("top") // at 3
	})

	last := code.Code[len(code.Code)-1]
	if last.Opcode != classfile.Goto || last.Operand != -2 {
		t.Errorf("last instruction = %v, want goto -2", last)
	}
}

func TestEnvironmentIsolation(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, _ := cb.DefineMethod(classfile.AccStatic, "envs", nil, descriptor.Void)

	if err := m.Label("L"); err != nil {
		t.Fatal(err)
	}
	outer := m.Env()
	inner := m.SetNewEnv()
	if inner == outer {
		t.Fatalf("SetNewEnv returned the current environment %d", inner)
	}
	if next := m.NewEnv(); next == inner || m.Env() != inner {
		t.Fatalf("NewEnv = %d, Env = %d; want a fresh id and no switch", next, m.Env())
	}
	m.Goto("L")

	err := m.Done()
	if !errors.Is(err, ErrUnresolvedLabel) {
		t.Fatalf("Done: err = %v, want ErrUnresolvedLabel", err)
	}
	if len(cb.methods) != 0 {
		t.Errorf("%d methods appended after a failed Done", len(cb.methods))
	}
	if _, err := cb.Done(); !errors.Is(err, ErrUnresolvedLabel) {
		t.Errorf("class Done: err = %v, want ErrUnresolvedLabel", err)
	}
}

func TestEnvironmentsReuseNames(t *testing.T) {
	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "twice", nil, descriptor.Void, func(m *MethodBuilder) {
		for i := 0; i < 2; i++ {
			m.SetNewEnv()
			m.Goto("skip")
			m.Nop()
			if err := m.Label("skip"); err != nil {
				t.Fatal(err)
			}
		}
		m.Return()
	})

	for _, i := range []int{0, 2} {
		if got := code.Code[i].Operand; got != 4 {
			t.Errorf("goto %d offset = %d, want 4", i, got)
		}
	}
}

func TestUndefinedLabel(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, _ := cb.DefineMethod(classfile.AccStatic, "broken", nil, descriptor.Void)
	m.Goto("end")
	m.Return()

	if err := m.Done(); !errors.Is(err, ErrUnresolvedLabel) {
		t.Fatalf("Done: err = %v, want ErrUnresolvedLabel", err)
	}
	if len(cb.methods) != 0 {
		t.Errorf("%d methods appended, want 0", len(cb.methods))
	}
}

func TestDuplicateLabel(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, _ := cb.DefineMethod(classfile.AccStatic, "dup", nil, descriptor.Void)
	if err := m.Label("a"); err != nil {
		t.Fatal(err)
	}
	m.Nop()
	if err := m.Label("a"); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("err = %v, want ErrDuplicateLabel", err)
	}
}

func TestLabelsShareOffset(t *testing.T) {
	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "twice", nil, descriptor.Void, func(m *MethodBuilder) {
		m.Nop()
		if err := m.Label("a"); err != nil {
			t.Fatal(err)
		}
		if err := m.Label("b"); err != nil {
			t.Fatal(err)
		}
		m.Goto("a")
		m.Goto("b")
		m.Return()
	})

	frames := code.StackMapTable().Entries
	if len(frames) != 1 || frames[0] != (classfile.SameFrame{OffsetDelta: 1}) {
		t.Errorf("frames = %v, want a single SameFrame at 1", frames)
	}
	if got := code.Code[1].Operand; got != 0 {
		t.Errorf("goto a offset = %d, want 0", got)
	}
	if got := code.Code[2].Operand; got != -3 {
		t.Errorf("goto b offset = %d, want -3", got)
	}
}

func TestFrameDeltas(t *testing.T) {
	nops := func(m *MethodBuilder, n int) {
		for i := 0; i < n; i++ {
			m.Nop()
		}
	}
	label := func(m *MethodBuilder, name string) {
		if err := m.Label(name); err != nil {
			t.Fatal(err)
		}
	}

	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "frames", nil, descriptor.Void, func(m *MethodBuilder) {
		nops(m, 256)
		label(m, "a") // first frame, 256 from the start
		label(m, "b") // same offset, no new frame
		nops(m, 255)
		label(m, "c")
		nops(m, 256)
		label(m, "d")
		m.Iconst1()
		label(m, "e")
		nops(m, 299)
		label(m, "f")
		m.Pop()
		m.Return()
	})

	want := []classfile.StackMapFrame{
		classfile.SameFrameExtended{OffsetDelta: 256},
		classfile.SameFrame{OffsetDelta: 255},
		classfile.SameFrameExtended{OffsetDelta: 256},
		classfile.SameLocals1StackItemFrame{OffsetDelta: 1, Stack: classfile.IntegerType},
		classfile.SameLocals1StackItemFrameExtended{OffsetDelta: 299, Stack: classfile.IntegerType},
	}
	got := code.StackMapTable().Entries
	if len(got) != len(want) {
		t.Fatalf("%d frames, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestLdcNeedsSmallIndex(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	for n := int32(0); cb.ConstantCount() < 255; n++ {
		if _, err := cb.DefineInteger(n); err != nil {
			t.Fatal(err)
		}
	}
	m, _ := cb.DefineMethod(classfile.AccStatic, "big", nil, descriptor.Void)

	if err := m.LdcInt(0); err != nil {
		t.Errorf("ldc of existing constant: %v", err)
	}
	if err := m.LdcFloat(2.5); !errors.Is(err, ErrConstantPoolOverflow) {
		t.Errorf("ldc of constant #%d: err = %v, want ErrConstantPoolOverflow", cb.ConstantCount(), err)
	}
}

func TestBranchOutOfRange(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, _ := cb.DefineMethod(classfile.AccStatic, "far", nil, descriptor.Void)
	if err := m.Label("top"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 33000; i++ {
		m.Nop()
	}
	m.Goto("top")

	if err := m.Done(); !errors.Is(err, ErrBranchOutOfRange) {
		t.Errorf("err = %v, want ErrBranchOutOfRange", err)
	}
}

func TestCodeTooLarge(t *testing.T) {
	cb := newFoo(t, DefaultOptions())
	m, _ := cb.DefineMethod(classfile.AccStatic, "huge", nil, descriptor.Void)
	for i := 0; i < 65536; i++ {
		m.Nop()
	}

	if err := m.Done(); !errors.Is(err, ErrCodeTooLarge) {
		t.Errorf("err = %v, want ErrCodeTooLarge", err)
	}
}

func TestUnpatchableInstruction(t *testing.T) {
	w := waiting{label: labelKey{"x", 0}, ins: classfile.Instruction{Opcode: classfile.Iadd}}
	if _, err := w.resolve(0, map[labelKey]int{{"x", 0}: 4}); !errors.Is(err, ErrUnpatchableInstruction) {
		t.Errorf("err = %v, want ErrUnpatchableInstruction", err)
	}
}

func TestLocalsModes(t *testing.T) {
	args := []descriptor.Type{descriptor.Long, descriptor.Int}
	body := func(m *MethodBuilder) {
		m.Iconst0()
		m.Istore3()
		m.Iconst0()
		m.Istore3()
		m.Iconst1()
		m.Istore(5)
		m.Return()
	}

	tests := []struct {
		locals LocalsMode
		access uint16
		want   uint16
	}{
		// this, long (2 slots), int, then slot 5
		{LocalsHighWater, 0, 6},
		{LocalsHighWater, classfile.AccStatic, 6},
		// argument count plus one per store
		{LocalsPerStore, 0, 5},
		{LocalsPerStore, classfile.AccStatic, 5},
	}
	for _, tt := range tests {
		t.Run(tt.locals.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Locals = tt.locals
			_, code := assemble(t, opts, tt.access, "locals", args, descriptor.Void, body)
			if code.MaxLocals != tt.want {
				t.Errorf("max locals = %d, want %d", code.MaxLocals, tt.want)
			}
		})
	}

	opts := DefaultOptions()
	_, code := assemble(t, opts, 0, "wide", args, descriptor.Void, func(m *MethodBuilder) { m.Return() })
	if code.MaxLocals != 4 {
		t.Errorf("instance method (JI)V: max locals = %d, want 4", code.MaxLocals)
	}
}

func TestLegacyStackNeverPops(t *testing.T) {
	body := func(m *MethodBuilder) {
		m.Iconst1()
		m.Iconst2()
		m.Iadd()
		m.Pop()
		if err := m.Label("after"); err != nil {
			t.Fatal(err)
		}
		m.Return()
	}

	_, legacy := assemble(t, LegacyOptions(), classfile.AccStatic, "sum", nil, descriptor.Void, body)
	want := classfile.SameLocals1StackItemFrame{OffsetDelta: 4, Stack: classfile.IntegerType}
	if got := legacy.StackMapTable().Entries; len(got) != 1 || got[0] != want {
		t.Errorf("legacy frames = %v, want [%v]", got, want)
	}
	if legacy.MaxStack != 0 {
		t.Errorf("legacy max stack = %d, want 0", legacy.MaxStack)
	}

	_, tracked := assemble(t, DefaultOptions(), classfile.AccStatic, "sum", nil, descriptor.Void, body)
	if got := tracked.StackMapTable().Entries; len(got) != 1 || got[0] != (classfile.SameFrame{OffsetDelta: 4}) {
		t.Errorf("tracked frames = %v, want [same 4]", got)
	}
	if tracked.MaxStack != 2 {
		t.Errorf("tracked max stack = %d, want 2", tracked.MaxStack)
	}
}

func TestTrackedReferenceTypes(t *testing.T) {
	sb := "java/lang/StringBuilder"
	cf, code := assemble(t, DefaultOptions(), classfile.AccPublic, "build", nil, stringT, func(m *MethodBuilder) {
		if err := m.New(sb); err != nil {
			t.Fatal(err)
		}
		m.Dup()
		if err := m.InvokeSpecial(sb, "<init>", nil, descriptor.Void); err != nil {
			t.Fatal(err)
		}
		m.Astore1()
		m.Aload1()
		if err := m.Label("built"); err != nil {
			t.Fatal(err)
		}
		if err := m.InvokeVirtual(sb, "toString", nil, stringT); err != nil {
			t.Fatal(err)
		}
		if err := m.Label("string"); err != nil {
			t.Fatal(err)
		}
		m.Areturn()
	})

	frames := code.StackMapTable().Entries
	if len(frames) != 2 {
		t.Fatalf("%d frames, want 2", len(frames))
	}
	for i, want := range []string{sb, "java/lang/String"} {
		f, ok := frames[i].(classfile.SameLocals1StackItemFrame)
		if !ok || f.Stack.Tag != classfile.VObject {
			t.Errorf("frame %d = %#v, want an object on the stack", i, frames[i])
			continue
		}
		if name, _ := cf.ClassName(f.Stack.Index); name != want {
			t.Errorf("frame %d stack class = %q, want %q", i, name, want)
		}
	}
	if code.MaxStack != 2 {
		t.Errorf("max stack = %d, want 2", code.MaxStack)
	}
	if code.MaxLocals != 2 {
		t.Errorf("max locals = %d, want 2", code.MaxLocals)
	}
}

func TestTrackedUnderflowClamps(t *testing.T) {
	_, code := assemble(t, DefaultOptions(), classfile.AccStatic, "under", nil, descriptor.Void, func(m *MethodBuilder) {
		m.Iadd()
		m.Pop()
		m.Pop()
		if err := m.Label("x"); err != nil {
			t.Fatal(err)
		}
		m.Return()
	})
	if got := code.StackMapTable().Entries[0]; got != (classfile.SameFrame{OffsetDelta: 3}) {
		t.Errorf("frame = %v, want same 3", got)
	}
	if code.MaxStack != 1 {
		t.Errorf("max stack = %d, want 1", code.MaxStack)
	}
}

func TestLineNumbers(t *testing.T) {
	cf, code := assemble(t, DefaultOptions(), classfile.AccStatic, "lines", nil, descriptor.Void, func(m *MethodBuilder) {
		m.LineNumber(3)
		m.LineNumber(4)
		m.Nop()
		m.LineNumber(7)
		m.Return()
	})

	lnt := code.LineNumberTable()
	if lnt == nil {
		t.Fatal("no line number table")
	}
	want := []classfile.LineNumberEntry{{StartPC: 0, LineNumber: 4}, {StartPC: 1, LineNumber: 7}}
	if len(lnt.Entries) != len(want) {
		t.Fatalf("entries = %v, want %v", lnt.Entries, want)
	}
	for i := range want {
		if lnt.Entries[i] != want[i] {
			t.Errorf("entry %d = %v, want %v", i, lnt.Entries[i], want[i])
		}
	}
	if name, _ := cf.LookupString(lnt.NameIndex); name != classfile.AttrLineNumberTable {
		t.Errorf("attribute name = %q", name)
	}
}
