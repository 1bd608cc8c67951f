package config

import "testing"

func TestRomanNumeral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want string
	}{
		{1, "I"},
		{4, "IV"},
		{9, "IX"},
		{12, "XII"},
		{14, "XIV"},
		{21, "XXI"},
		{37, "XXXVII"},
		{45, "XLV"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := romanNumeral(tt.n); got != tt.want {
				t.Errorf("romanNumeral(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "underscores to spaces", input: "Cato_Maior_de_Senectute", want: "cato maior de senectute"},
		{name: "whitespace collapse", input: "  Ab  Urbe   Condita ", want: "ab urbe condita"},
		{name: "case folded", input: "AENEIS", want: "aeneis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCuratedLookups(t *testing.T) {
	t.Parallel()

	c := NewCurated()

	t.Run("aeneis has twelve ordered books", func(t *testing.T) {
		t.Parallel()
		chapters, ok := c.Chapters("Aeneis")
		if !ok {
			t.Fatal("expected Aeneis in the curated table")
		}
		if len(chapters) != 12 {
			t.Fatalf("Aeneis has %d chapters, want 12", len(chapters))
		}
		if chapters[0] != "Aeneis/Liber I" {
			t.Errorf("first chapter = %q, want %q", chapters[0], "Aeneis/Liber I")
		}
		if chapters[11] != "Aeneis/Liber XII" {
			t.Errorf("last chapter = %q, want %q", chapters[11], "Aeneis/Liber XII")
		}
	})

	t.Run("livy skips the lost books", func(t *testing.T) {
		t.Parallel()
		chapters, ok := c.Chapters("Ab Urbe Condita")
		if !ok {
			t.Fatal("expected Ab Urbe Condita in the curated table")
		}
		if len(chapters) != 35 {
			t.Fatalf("Ab Urbe Condita has %d chapters, want 35", len(chapters))
		}
		if chapters[10] != "Ab Urbe Condita/Liber XXI" {
			t.Errorf("chapter after the gap = %q, want %q", chapters[10], "Ab Urbe Condita/Liber XXI")
		}
	})

	t.Run("lookup is case and whitespace insensitive", func(t *testing.T) {
		t.Parallel()
		if !c.IsIndex("  aeneis ") {
			t.Error("normalized lookup should find Aeneis")
		}
		if !c.IsIndex("GEORGICA") {
			t.Error("case-folded lookup should find Georgica")
		}
	})

	t.Run("leaf work is not curated", func(t *testing.T) {
		t.Parallel()
		if c.IsIndex("Cato Maior de Senectute") {
			t.Error("Cato Maior de Senectute is a leaf work, not a curated index")
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		t.Parallel()
		first, _ := c.Chapters("Georgica")
		first[0] = "mutated"
		second, _ := c.Chapters("Georgica")
		if second[0] != "Georgica/Liber I" {
			t.Error("mutating a returned chapter list must not affect the table")
		}
	})

	t.Run("override replaces a list", func(t *testing.T) {
		t.Parallel()
		local := NewCurated()
		local.Override("Aeneis", []string{"Aeneis/Liber I"})
		chapters, _ := local.Chapters("Aeneis")
		if len(chapters) != 1 {
			t.Errorf("overridden Aeneis has %d chapters, want 1", len(chapters))
		}
	})
}
