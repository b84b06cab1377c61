package classbuilder

import (
	"fmt"
	"math"

	"github.com/blacknovatech/jvmasm/classfile"
	"github.com/blacknovatech/jvmasm/descriptor"
)

type labelKey struct {
	name string
	env  uint16
}

func (k labelKey) String() string {
	return fmt.Sprintf("%q (env %d)", k.name, k.env)
}

// intermediate is an instruction held in the method body until Done.
type intermediate interface {
	resolve(pos int, labels map[labelKey]int) (classfile.Instruction, error)
}

// ready is an instruction with nothing left to fill in.
type ready struct {
	ins classfile.Instruction
}

func (r ready) resolve(int, map[labelKey]int) (classfile.Instruction, error) {
	return r.ins, nil
}

// waiting is a branch whose offset is known only once its label is.
type waiting struct {
	label labelKey
	ins   classfile.Instruction
}

func (w waiting) resolve(pos int, labels map[labelKey]int) (classfile.Instruction, error) {
	target, ok := labels[w.label]
	if !ok {
		return w.ins, fmt.Errorf("%w: %s, branch at %d", ErrUnresolvedLabel, w.label, pos)
	}

	delta := target - pos
	if delta < math.MinInt16 || delta > math.MaxInt16 {
		return w.ins, fmt.Errorf("%w: %s at %d is %d bytes from the branch at %d", ErrBranchOutOfRange, w.label, target, delta, pos)
	}

	ins, err := w.ins.WithOffset(int16(delta))
	if err != nil {
		return w.ins, fmt.Errorf("%w: %v", ErrUnpatchableInstruction, err)
	}
	return ins, nil
}

type placed struct {
	pos int
	ir  intermediate
}

// MethodBuilder emits the body of one method. Instructions are appended at a
// byte cursor; branches name labels that are resolved when Done is called.
//
// Labels live in environments: a branch only sees labels declared in the
// environment that was current when the branch was emitted, which lets
// macro-generated code reuse label names.
type MethodBuilder struct {
	cb *ClassBuilder

	name            string
	accessFlags     uint16
	nameIndex       uint16
	descriptorIndex uint16
	static          bool

	code      []placed
	cursor    int
	labels    map[labelKey]int
	frames    []classfile.StackMapFrame
	lastFrame int
	lines     []classfile.LineNumberEntry

	env     uint16
	envNext uint16

	stack       []classfile.VerificationType
	depth       int
	maxDepth    int
	locals      map[int]classfile.VerificationType
	maxLocals   int
	allocations map[uint16]uint16
}

func newMethodBuilder(cb *ClassBuilder, accessFlags uint16, name string, args []descriptor.Type, ret descriptor.Type) (*MethodBuilder, error) {
	nameIndex, err := cb.pool.utf8(name)
	if err != nil {
		return nil, err
	}
	descIndex, err := cb.pool.utf8(descriptor.Method(args, ret))
	if err != nil {
		return nil, err
	}

	m := &MethodBuilder{
		cb:              cb,
		name:            name,
		accessFlags:     accessFlags,
		nameIndex:       nameIndex,
		descriptorIndex: descIndex,
		static:          accessFlags&classfile.AccStatic != 0,
		labels:          make(map[labelKey]int),
		lastFrame:       -1,
		locals:          make(map[int]classfile.VerificationType),
		allocations:     make(map[uint16]uint16),
	}
	if err := m.seedLocals(args); err != nil {
		return nil, err
	}
	return m, nil
}

// Name returns the method name.
func (m *MethodBuilder) Name() string {
	return m.name
}

// Offset is the byte offset the next instruction will be placed at.
func (m *MethodBuilder) Offset() int {
	return m.cursor
}

func (m *MethodBuilder) checkOpen() {
	if m.cb == nil {
		panic(fmt.Sprintf("classbuilder: method %s used after Done", m.name))
	}
}

func (m *MethodBuilder) place(ir intermediate, op classfile.Opcode) {
	m.code = append(m.code, placed{pos: m.cursor, ir: ir})
	m.cursor += op.Size()
}

// emit appends a resolved instruction and applies its stack effect.
func (m *MethodBuilder) emit(op classfile.Opcode, operand int32, pops int, pushes ...classfile.VerificationType) []classfile.VerificationType {
	m.checkOpen()
	m.place(ready{classfile.Instruction{Opcode: op, Operand: operand}}, op)
	return m.effect(op, pops, pushes...)
}

// branch appends a branch to label in the current environment.
func (m *MethodBuilder) branch(op classfile.Opcode, label string, pops int) {
	m.checkOpen()
	m.place(waiting{label: labelKey{label, m.env}, ins: classfile.Instruction{Opcode: op}}, op)
	m.effect(op, pops)
}

// intern runs a pool operation on behalf of an instruction. Failures are
// fatal to the class.
func (m *MethodBuilder) intern(what string, f func(p *constantPool) (uint16, error)) (uint16, error) {
	m.checkOpen()
	index, err := f(&m.cb.pool)
	if err != nil {
		return 0, m.cb.fail(fmt.Errorf("%s: %s: %w", m.name, what, err))
	}
	return index, nil
}

func (m *MethodBuilder) fail(err error) error {
	return m.cb.fail(fmt.Errorf("%s: %w", m.name, err))
}

// Env returns the current label environment.
func (m *MethodBuilder) Env() uint16 {
	return m.env
}

// NewEnv allocates a fresh environment id without switching to it.
func (m *MethodBuilder) NewEnv() uint16 {
	m.envNext++
	return m.envNext
}

// SetEnv switches the environment used by later labels and branches.
func (m *MethodBuilder) SetEnv(env uint16) {
	m.env = env
}

// SetNewEnv allocates a fresh environment and switches to it.
func (m *MethodBuilder) SetNewEnv() uint16 {
	env := m.NewEnv()
	m.SetEnv(env)
	return env
}

// Label names the current offset in the current environment and records a
// stack map frame there. A label at the offset of the previous frame shares
// that frame, so several labels in a row produce one entry.
func (m *MethodBuilder) Label(name string) error {
	m.checkOpen()
	key := labelKey{name, m.env}
	if at, ok := m.labels[key]; ok {
		return m.fail(fmt.Errorf("%w: %s already at %d", ErrDuplicateLabel, key, at))
	}
	m.labels[key] = m.cursor
	m.recordFrame()
	return nil
}

// recordFrame adds a frame for the current offset. Locals are never described:
// the frame only carries the top of the operand stack, if any.
func (m *MethodBuilder) recordFrame() {
	pos := m.cursor
	delta := pos
	if m.lastFrame >= 0 {
		if pos == m.lastFrame {
			return
		}
		delta = pos - m.lastFrame
	}

	top, ok := m.top()
	var frame classfile.StackMapFrame
	switch {
	case !ok && delta <= math.MaxUint8:
		frame = classfile.SameFrame{OffsetDelta: uint8(delta)}
	case !ok:
		frame = classfile.SameFrameExtended{OffsetDelta: uint16(delta)}
	case delta <= math.MaxUint8:
		frame = classfile.SameLocals1StackItemFrame{OffsetDelta: uint8(delta), Stack: top}
	default:
		frame = classfile.SameLocals1StackItemFrameExtended{OffsetDelta: uint16(delta), Stack: top}
	}

	m.frames = append(m.frames, frame)
	m.lastFrame = pos
}

// LineNumber maps the current offset to a source line.
func (m *MethodBuilder) LineNumber(line uint16) {
	m.checkOpen()
	if n := len(m.lines); n > 0 && int(m.lines[n-1].StartPC) == m.cursor {
		m.lines[n-1].LineNumber = line
		return
	}
	if m.cursor > math.MaxUint16 {
		return
	}
	m.lines = append(m.lines, classfile.LineNumberEntry{StartPC: uint16(m.cursor), LineNumber: line})
}

// Done resolves every branch, builds the Code attribute and adds the method to
// the class. The MethodBuilder cannot be used afterwards, and the class builder
// is released whether or not Done succeeds.
func (m *MethodBuilder) Done() error {
	if m.cb == nil {
		return ErrBuilderClosed
	}
	cb := m.cb
	m.cb = nil
	cb.open = nil

	if cb.err != nil {
		return fmt.Errorf("class build aborted: %w", cb.err)
	}

	code := make([]classfile.Instruction, 0, len(m.code))
	for _, p := range m.code {
		ins, err := p.ir.resolve(p.pos, m.labels)
		if err != nil {
			return cb.fail(fmt.Errorf("%s: %w", m.name, err))
		}
		code = append(code, ins)
	}
	if m.cursor > math.MaxUint16 {
		return cb.fail(fmt.Errorf("%w: %s is %d bytes", ErrCodeTooLarge, m.name, m.cursor))
	}

	stackMapIndex, err := cb.pool.utf8(classfile.AttrStackMapTable)
	if err != nil {
		return cb.fail(err)
	}
	codeIndex, err := cb.pool.utf8(classfile.AttrCode)
	if err != nil {
		return cb.fail(err)
	}

	frames := m.frames
	if frames == nil {
		frames = []classfile.StackMapFrame{}
	}
	attrs := []classfile.Attribute{&classfile.StackMapTableAttribute{NameIndex: stackMapIndex, Entries: frames}}
	if len(m.lines) > 0 {
		linesIndex, err := cb.pool.utf8(classfile.AttrLineNumberTable)
		if err != nil {
			return cb.fail(err)
		}
		attrs = append(attrs, &classfile.LineNumberTableAttribute{NameIndex: linesIndex, Entries: m.lines})
	}

	maxStack := m.maxDepth
	if cb.opts.Stack != StackTracked {
		maxStack = 0
	}
	if maxStack > math.MaxUint16 || m.maxLocals > math.MaxUint16 {
		return cb.fail(fmt.Errorf("%w: %s needs %d stack words and %d locals", ErrCodeTooLarge, m.name, maxStack, m.maxLocals))
	}

	cb.methods = append(cb.methods, classfile.Method{
		AccessFlags:     m.accessFlags,
		NameIndex:       m.nameIndex,
		DescriptorIndex: m.descriptorIndex,
		Attributes: []classfile.Attribute{&classfile.CodeAttribute{
			NameIndex:      codeIndex,
			MaxStack:       uint16(maxStack),
			MaxLocals:      uint16(m.maxLocals),
			Code:           code,
			ExceptionTable: []classfile.ExceptionTableEntry{},
			Attributes:     attrs,
		}},
	})
	log.Infof("Registered method: (%d) %s, %d instructions in %d bytes", len(cb.methods)-1, m.name, len(code), m.cursor)
	return nil
}
