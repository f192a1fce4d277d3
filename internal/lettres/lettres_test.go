package lettres

import "testing"

func TestEnLettres(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "zéro"},
		{1, "un"},
		{16, "seize"},
		{17, "dix-sept"},
		{21, "vingt et un"},
		{42, "quarante-deux"},
		{70, "soixante-dix"},
		{71, "soixante et onze"},
		{77, "soixante-dix-sept"},
		{80, "quatre-vingts"},
		{81, "quatre-vingt-un"},
		{90, "quatre-vingt-dix"},
		{91, "quatre-vingt-onze"},
		{97, "quatre-vingt-dix-sept"},
		{101, "cent un"},
		{200, "deux cents"},
		{201, "deux cent un"},
		{999, "neuf cent quatre-vingt-dix-neuf"},
		{1000, "mille"},
		{1001, "mille un"},
		{2000, "deux mille"},
		{80000, "quatre-vingt mille"},
		{200000, "deux cent mille"},
		{790000, "sept cent quatre-vingt-dix mille"},
		{210000, "deux cent dix mille"},
		{1000000, "un million"},
		{1000001, "un million un"},
		{2500000, "deux millions cinq cent mille"},
		{80000000, "quatre-vingts millions"},
		{200000000, "deux cents millions"},
		{1000000000, "un milliard"},
		{-126000, "moins cent vingt-six mille"},
	}
	for _, tc := range cases {
		if got := EnLettres(tc.n); got != tc.want {
			t.Errorf("EnLettres(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestMontant(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "un franc CFA"},
		{2, "deux francs CFA"},
		{1000000, "un million francs CFA"},
		{900000, "neuf cent mille francs CFA"},
	}
	for _, tc := range cases {
		if got := Montant(tc.n); got != tc.want {
			t.Errorf("Montant(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}
