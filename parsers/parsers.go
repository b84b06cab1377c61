package parsers

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

func parseInt(strval string, bitlen int) (int64, error) {
	bigval, ok := big.NewInt(-1).SetString(strval, 0)

	if !ok {
		return 0, fmt.Errorf("Invalid value: `%s`", strval)
	}

	// two's complement ranges: -2^(n-1) .. 2^(n-1)-1
	min := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bitlen-1)))
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bitlen-1)), big.NewInt(1))
	if bigval.Cmp(min) < 0 || bigval.Cmp(max) > 0 {
		return 0, fmt.Errorf("Value out of range: `%s`", strval)
	}

	return bigval.Int64(), nil
}

// ParseInt8 parses an int8 in binary, octal, decimal or hex from the given string
func ParseInt8(strval string) (int8, error) {
	val, err := parseInt(strval, 8)
	if err != nil {
		return 0, err
	}
	return int8(val), nil
}

// ParseInt16 parses an int16 in binary, octal, decimal or hex from the given string
func ParseInt16(strval string) (int16, error) {
	val, err := parseInt(strval, 16)
	if err != nil {
		return 0, err
	}
	return int16(val), nil
}

// ParseInt32 parses an int32 in binary, octal, decimal or hex from the given string
func ParseInt32(strval string) (int32, error) {
	val, err := parseInt(strval, 32)
	if err != nil {
		return 0, err
	}
	return int32(val), nil
}

func parseUint(strval string, bitlen int) (uint64, error) {
	bigval, ok := big.NewInt(-1).SetString(strval, 0)

	if !ok {
		return 0, fmt.Errorf("Invalid value: `%s`", strval)
	}

	if bigval.Sign() < 0 {
		return 0, fmt.Errorf("Value cannot be negative: `%s`", strval)
	}

	if bigval.BitLen() > bitlen {
		return 0, fmt.Errorf("Value out of range: `%s`", strval)
	}

	return bigval.Uint64(), nil
}

// ParseUint8 parses an uint8 in binary, octal, decimal or hex from the given string
func ParseUint8(strval string) (uint8, error) {
	val, err := parseUint(strval, 8)
	if err != nil {
		return 0, err
	}
	return uint8(val), nil
}

// ParseUint16 parses an uint16 in binary, octal, decimal or hex from the given string
func ParseUint16(strval string) (uint16, error) {
	val, err := parseUint(strval, 16)
	if err != nil {
		return 0, err
	}
	return uint16(val), nil
}

// ParseFloat32 parses a float literal. A trailing `f` or `F` is accepted.
func ParseFloat32(strval string) (float32, error) {
	s := strings.TrimRight(strval, "fF")
	val, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("Invalid float: `%s`", strval)
	}
	return float32(val), nil
}

// IsFloatLiteral reports whether strval looks like a float rather than an integer.
func IsFloatLiteral(strval string) bool {
	strval = strings.TrimPrefix(strval, "-")
	if strings.HasPrefix(strval, "0x") || strings.HasPrefix(strval, "0X") {
		return false
	}
	return strings.ContainsAny(strval, ".eEfF")
}

// ParseChar parses an int8 from a character literal
func ParseChar(strval string) (int8, error) {
	if strings.HasPrefix(strval, "'") {
		if !strings.HasSuffix(strval, "'") || len(strval) != 3 {
			return 0, fmt.Errorf("Invalid character literal `%s`", strval)
		}
		return int8(strval[1]), nil
	}
	return 0, fmt.Errorf("Invalid character literal `%s`", strval)
}

// ParseString parses a double quoted string literal with Go escapes.
func ParseString(strval string) (string, error) {
	if !strings.HasPrefix(strval, `"`) {
		return "", fmt.Errorf("Invalid string literal `%s`", strval)
	}
	s, err := strconv.Unquote(strval)
	if err != nil {
		return "", fmt.Errorf("Invalid string literal `%s`", strval)
	}
	return s, nil
}
