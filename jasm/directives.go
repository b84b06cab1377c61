package jasm

const (
	JASClass     = ".class"
	JASSource    = ".source"
	JASField     = ".field"
	JASMethod    = ".method"
	JASMethodEnd = ".end-method"
	JASVar       = ".var"

	JASExtends = "extends"
	JASComment = "//"

	MacroEnv   = "#env"
	MacroLine  = "#line"
	MacroPrint = "#print"
)

// DefaultSuper is the superclass of a .class without an extends clause.
const DefaultSuper = "java/lang/Object"
