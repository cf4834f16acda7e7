package model

import "testing"

func TestIKNormalization(t *testing.T) {
	cases := []struct {
		in         string
		wantBare   string
		wantPrefix string
	}{
		{"IK123456789", "123456789", "IK123456789"},
		{"123456789", "123456789", "IK123456789"},
		{"IK260326822", "260326822", "IK260326822"},
	}

	for _, c := range cases {
		if got := IKWithoutPrefix(c.in); got != c.wantBare {
			t.Errorf("IKWithoutPrefix(%q) = %q, want %q", c.in, got, c.wantBare)
		}
		if got := IKWithPrefix(c.in); got != c.wantPrefix {
			t.Errorf("IKWithPrefix(%q) = %q, want %q", c.in, got, c.wantPrefix)
		}
	}
}

func TestIKNormalizationInvolutive(t *testing.T) {
	for _, ik := range []string{"IK987654321", "987654321"} {
		if IKWithPrefix(IKWithoutPrefix(ik)) != IKWithPrefix(ik) {
			t.Errorf("withPrefix(withoutPrefix(%q)) != withPrefix(%q)", ik, ik)
		}
		if IKWithoutPrefix(IKWithPrefix(ik)) != IKWithoutPrefix(ik) {
			t.Errorf("withoutPrefix(withPrefix(%q)) != withoutPrefix(%q)", ik, ik)
		}
	}
}

func TestIsTestCode(t *testing.T) {
	if !IsTestCode("77AAAAAAAAAAAAAAAX") {
		t.Error("expected test code to be classified as test")
	}
	if IsTestCode("DE12345678901234AB") {
		t.Error("expected production code to be classified as production")
	}
}
