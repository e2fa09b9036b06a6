package util

import "testing"

func TestLightHashKnownValues(t *testing.T) {
	cases := []struct {
		in   string
		want int32
	}{
		{"", 7},
		{"a", 7*31 + 'a'},
		{"ab", (7*31+'a')*31 + 'b'},
	}
	for _, tc := range cases {
		if got := LightHash(tc.in); got != tc.want {
			t.Fatalf("LightHash(%q)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestLightHashWrapsAround(t *testing.T) {
	// long inputs must overflow silently like int32 arithmetic
	s := ""
	for i := 0; i < 64; i++ {
		s += "z"
	}
	if LightHash(s) == LightHash(s+"z") {
		t.Fatalf("expected different hashes for different lengths")
	}
}

func TestLightHashUsesUTF16Units(t *testing.T) {
	// U+1F600 is a surrogate pair in UTF-16: two units, not one rune
	got := LightHash("\U0001F600")
	var want int32 = 7
	want = want*31 + 0xD83D
	want = want*31 + 0xDE00
	if got != want {
		t.Fatalf("LightHash(emoji)=%d want %d", got, want)
	}
}

func TestDigestHex(t *testing.T) {
	if got := DigestHex(""); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Fatalf("DigestHex(\"\")=%s", got)
	}
	if len(DigestHex("anything")) != 32 {
		t.Fatalf("digest must be 32 hex chars")
	}
}
