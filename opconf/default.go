package opconf

// defaultConfig is the instruction set understood by the assembler.
// Format: opcode mnemonic [argtypes...]
const defaultConfig = `
0x00 nop
0x01 aconst_null
0x02 iconst_m1
0x03 iconst_0
0x04 iconst_1
0x05 iconst_2
0x06 iconst_3
0x07 iconst_4
0x08 iconst_5
0x0b fconst_0
0x0c fconst_1
0x0d fconst_2
0x10 bipush      byte
0x11 sipush      short
0x12 ldc         constant

0x15 iload       var
0x17 fload       var
0x19 aload       var
0x1a iload_0
0x1b iload_1
0x1c iload_2
0x1d iload_3
0x22 fload_0
0x23 fload_1
0x24 fload_2
0x25 fload_3
0x2a aload_0
0x2b aload_1
0x2c aload_2
0x2d aload_3
0x32 aaload

0x36 istore      var
0x38 fstore      var
0x3a astore      var
0x3b istore_0
0x3c istore_1
0x3d istore_2
0x3e istore_3
0x43 fstore_0
0x44 fstore_1
0x45 fstore_2
0x46 fstore_3
0x4b astore_0
0x4c astore_1
0x4d astore_2
0x4e astore_3

0x57 pop
0x59 dup

0x60 iadd
0x62 fadd
0x64 isub
0x66 fsub
0x68 imul
0x6a fmul
0x6c idiv
0x6e fdiv
0x70 irem
0x72 frem
0x74 ineg
0x76 fneg

0x86 i2f
0x8b f2i
0x92 i2c
0x95 fcmpl
0x96 fcmpg

0x99 ifeq        label
0x9a ifne        label
0x9b iflt        label
0x9c ifge        label
0x9d ifgt        label
0x9e ifle        label
0x9f if_icmpeq   label
0xa0 if_icmpne   label
0xa1 if_icmplt   label
0xa2 if_icmpge   label
0xa3 if_icmpgt   label
0xa4 if_icmple   label
0xa7 goto        label

0xac ireturn
0xae freturn
0xb0 areturn
0xb1 return

0xb2 getstatic     ref
0xb3 putstatic     ref
0xb4 getfield      ref
0xb5 putfield      ref
0xb6 invokevirtual ref
0xb7 invokespecial ref
0xb8 invokestatic  ref
0xbb new           ref
0xbe arraylength
`
