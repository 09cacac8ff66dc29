package simhash

import (
	"testing"
)

func TestFingerprint_IdenticalTexts(t *testing.T) {
	text := "consulta pública sobre outorga de uso de recursos hídricos"
	if fp1, fp2 := Fingerprint(text), Fingerprint(text); fp1 != fp2 {
		t.Errorf("identical texts produced different fingerprints: %064b vs %064b", fp1, fp2)
	}
}

func TestFingerprint_SimilarTexts(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("the quick brown fox leaps over the lazy dog")

	if dist := Distance(fp1, fp2); dist > 10 {
		t.Errorf("similar texts have too large distance: %d", dist)
	}
}

func TestFingerprint_DifferentTexts(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox jumps over the lazy dog")
	fp2 := Fingerprint("completely unrelated content about quantum physics and mathematics")

	if dist := Distance(fp1, fp2); dist < 5 {
		t.Errorf("very different texts have too small distance: %d", dist)
	}
}

func TestFingerprint_Empty(t *testing.T) {
	for _, in := range []string{"", "   \t\n  "} {
		if fp := Fingerprint(in); fp != 0 {
			t.Errorf("Fingerprint(%q) = %064b, want 0", in, fp)
		}
	}
	if fp := FromTokens(nil); fp != 0 {
		t.Errorf("FromTokens(nil) = %064b, want 0", fp)
	}
}

func TestFromTokens_MatchesFingerprint(t *testing.T) {
	if FromTokens([]string{"a", "b", "c"}) != Fingerprint("a b  c") {
		t.Error("FromTokens and Fingerprint disagree on the same tokens")
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	fp1 := Fingerprint("the quick brown fox")
	fp3 := Fingerprint("a completely different text about nothing related")
	dist := Distance(fp1, fp3)

	if !Similar(fp1, fp1, 0) {
		t.Error("identical fingerprints should be similar at threshold 0")
	}
	if Similar(fp1, fp3, dist-1) {
		t.Errorf("should not be similar at threshold %d (distance is %d)", dist-1, dist)
	}
	if !Similar(fp1, fp3, dist) {
		t.Errorf("should be similar at threshold equal to distance (%d)", dist)
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, fp := range []uint64{0, 1, 0xdeadbeef, ^uint64(0)} {
		s := Hex(fp)
		if len(s) != 16 {
			t.Errorf("Hex(%d) = %q, want 16 digits", fp, s)
		}
		got, err := ParseHex(s)
		if err != nil || got != fp {
			t.Errorf("ParseHex(%q) = %d, %v; want %d", s, got, err, fp)
		}
	}
	if _, err := ParseHex("not-hex"); err == nil {
		t.Error("ParseHex accepted garbage")
	}
}

func TestFingerprintDOM_SameLayoutDifferentText(t *testing.T) {
	html1 := `<table id="tableContent"><tr><th>Número</th></tr><tr><td>1</td><td>Web</td><td>A</td><td>Jan</td></tr></table>`
	html2 := `<table id="tableContent"><tr><th>N</th></tr><tr><td>9</td><td>Email</td><td>B</td><td>Dez</td></tr></table>`

	if fp1, fp2 := FingerprintDOM(html1), FingerprintDOM(html2); fp1 != fp2 {
		t.Errorf("same layout should produce the same fingerprint, distance: %d", Distance(fp1, fp2))
	}
}

func TestFingerprintDOM_DifferentStructures(t *testing.T) {
	html1 := `<html><body><div><h1>Title</h1><p>Text</p><p>More text</p></div></body></html>`
	html2 := `<html><body><table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table></body></html>`

	if dist := Distance(FingerprintDOM(html1), FingerprintDOM(html2)); dist < 3 {
		t.Errorf("different DOM structures should have larger distance, got: %d", dist)
	}
}

func TestFingerprintDOM_NoTags(t *testing.T) {
	for _, in := range []string{"", "just some plain text with no tags"} {
		if fp := FingerprintDOM(in); fp != 0 {
			t.Errorf("FingerprintDOM(%q) = %064b, want 0", in, fp)
		}
	}
	if FingerprintDOM("<br/>") == 0 {
		t.Error("single self-closing tag should produce non-zero fingerprint")
	}
}

func TestTagSequence(t *testing.T) {
	got := tagSequence(`<table><thead><tr><th>x</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`)
	want := []string{"table", "thead", "tr", "th", "tbody", "tr", "td"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tag[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestShingle(t *testing.T) {
	got := shingle([]string{"a", "b", "c", "d"}, 3)
	want := []string{"a_b_c", "b_c_d"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("shingle = %v, want %v", got, want)
	}
	if s := shingle([]string{"a", "b"}, 3); s != nil {
		t.Errorf("expected nil for fewer tokens than n, got: %v", s)
	}
}
