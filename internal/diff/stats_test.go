package diff

import "testing"

func TestSignedIntFormatsExplicitSign(t *testing.T) {
	cases := map[int]string{5: "+5", -5: "-5", 0: "0"}
	for delta, want := range cases {
		if got := signedInt(delta); got != want {
			t.Errorf("signedInt(%d) = %q, want %q", delta, got, want)
		}
	}
}

func TestSignedUintHandlesUnsignedUnderflow(t *testing.T) {
	if got := signedUint(10, 3); got != "+7" {
		t.Errorf("signedUint(10, 3) = %q, want +7", got)
	}
	if got := signedUint(3, 10); got != "-7" {
		t.Errorf("signedUint(3, 10) = %q, want -7", got)
	}
	if got := signedUint(5, 5); got != "0" {
		t.Errorf("signedUint(5, 5) = %q, want 0", got)
	}
}

func TestNormalizeNameTrimsAndLowercases(t *testing.T) {
	if got := normalizeName("  GBuffer  "); got != "gbuffer" {
		t.Errorf("normalizeName = %q, want gbuffer", got)
	}
}
