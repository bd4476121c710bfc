package compat

import "testing"

func TestSupportsRequiresIntroducingEdition(t *testing.T) {
	cases := []struct {
		name    string
		fs      FeatureSet
		feature Feature
		want    bool
	}{
		{"es3 lacks let", ES3(), Let, false},
		{"es2015 has let", Edition(2015), Let, true},
		{"es2015 lacks async", Edition(2015), AsyncAwait, false},
		{"es2017 has async", Edition(2017), AsyncAwait, true},
		{"es2017 lacks object rest spread", Edition(2017), ObjectRestSpread, false},
		{"combined features require the later edition", Edition(2016), Let | ExponentOperator, true},
		{"combined features fail on the missing one", Edition(2015), Let | ExponentOperator, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.fs.Supports(c.feature); got != c.want {
				t.Fatalf("Supports(%v) = %v, want %v", c.feature, got, c.want)
			}
		})
	}
}

func TestNarrowerThan(t *testing.T) {
	if !ES3().NarrowerThan(Edition(2015)) {
		t.Fatal("ES3 should be narrower than ES2015")
	}
	if Edition(2017).NarrowerThan(Edition(2015)) {
		t.Fatal("ES2017 should not be narrower than ES2015")
	}
	if Edition(2015).NarrowerThan(Edition(2015)) {
		t.Fatal("a feature set is not narrower than itself")
	}
}
