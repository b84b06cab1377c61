package parsers

import "testing"

func TestParseInt8(t *testing.T) {
	tests := []struct {
		in      string
		want    int8
		wantErr bool
	}{
		{"0", 0, false},
		{"127", 127, false},
		{"-128", -128, false},
		{"0x7f", 127, false},
		{"0b101", 5, false},
		{"128", 0, true},
		{"-129", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseInt8(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseInt8(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInt8(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseInt16Bounds(t *testing.T) {
	if v, err := ParseInt16("-32768"); err != nil || v != -32768 {
		t.Errorf("ParseInt16(-32768) = %d, %v", v, err)
	}
	if _, err := ParseInt16("32768"); err == nil {
		t.Error("ParseInt16(32768) should fail")
	}
}

func TestParseUint8(t *testing.T) {
	if v, err := ParseUint8("0xff"); err != nil || v != 255 {
		t.Errorf("ParseUint8(0xff) = %d, %v", v, err)
	}
	if _, err := ParseUint8("-1"); err == nil {
		t.Error("ParseUint8(-1) should fail")
	}
	if _, err := ParseUint8("256"); err == nil {
		t.Error("ParseUint8(256) should fail")
	}
}

func TestParseFloat32(t *testing.T) {
	tests := map[string]float32{
		"1.5":   1.5,
		"2f":    2,
		"0.25F": 0.25,
		"-3.0":  -3,
	}
	for in, want := range tests {
		got, err := ParseFloat32(in)
		if err != nil {
			t.Errorf("ParseFloat32(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseFloat32(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseFloat32("x"); err == nil {
		t.Error("ParseFloat32(x) should fail")
	}
}

func TestIsFloatLiteral(t *testing.T) {
	for in, want := range map[string]bool{"1.0": true, "3f": true, "1e3": true, "42": false, "0xff": false} {
		if got := IsFloatLiteral(in); got != want {
			t.Errorf("IsFloatLiteral(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseCharAndString(t *testing.T) {
	if c, err := ParseChar("'a'"); err != nil || c != 'a' {
		t.Errorf("ParseChar('a') = %d, %v", c, err)
	}
	if _, err := ParseChar("'ab'"); err == nil {
		t.Error("ParseChar('ab') should fail")
	}
	if s, err := ParseString(`"hi\n"`); err != nil || s != "hi\n" {
		t.Errorf("ParseString = %q, %v", s, err)
	}
	if _, err := ParseString("hi"); err == nil {
		t.Error("ParseString(hi) should fail")
	}
}
