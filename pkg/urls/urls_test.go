package urls

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseForm(t *testing.T) {
	in := strings.Join([]string{
		"# core files for form EZ",
		"2019 = https://example.org/19eoextractez.dat",
		"2020=https://example.org/20eoextractez.zip   ",
		"#2021 = https://example.org/commented.csv",
		"2021 = ftp://example.org/wrong-scheme.csv",
		"2022 = https://example.org/unknown.json",
		"garbage line",
		"",
		"2020 = https://example.org/20eoextractez.xlsx\r",
	}, "\n")

	got, err := ParseForm(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]string{
		2019: "https://example.org/19eoextractez.dat",
		2020: "https://example.org/20eoextractez.xlsx",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseForm() = %v, want %v", got, want)
	}
}

func TestParseFormIsIdempotent(t *testing.T) {
	line := "2020 = https://example.org/data.csv\n"
	once, _ := ParseForm(strings.NewReader(line))
	twice, _ := ParseForm(strings.NewReader(line + line))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("ParseForm(line) = %v, ParseForm(line+line) = %v", once, twice)
	}
}

func TestParseEpostcard(t *testing.T) {
	in := "# notice filings\nepostcard = https://apps.irs.gov/pub/epostcard/data-download-epostcard.zip\n"
	got, err := ParseEpostcard(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://apps.irs.gov/pub/epostcard/data-download-epostcard.zip" {
		t.Errorf("ParseEpostcard() = %q", got)
	}
}

func TestParseBMF(t *testing.T) {
	in := "region1 = https://example.org/eo1.csv\nregion2 = https://example.org/eo2.csv\nregion = https://example.org/none.csv\n"
	got, err := ParseBMF(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"region1": "https://example.org/eo1.csv",
		"region2": "https://example.org/eo2.csv",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseBMF() = %v, want %v", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"ez.txt":        "2020 = https://example.org/ez.csv\n",
		"full.txt":      "2020 = https://example.org/full.csv\n2019 = https://example.org/full19.csv\n",
		"epostcard.txt": "epostcard = https://example.org/epostcard.zip\n",
		"bmf.txt":       "region2 = https://example.org/eo2.csv\nregion1 = https://example.org/eo1.csv\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m, err := Load(dir, []string{"EZ", "Full"})
	if err != nil {
		t.Fatal(err)
	}
	if u, ok := m.URL("Full", 2019); !ok || u != "https://example.org/full19.csv" {
		t.Errorf("URL(Full, 2019) = %q, %v", u, ok)
	}
	if _, ok := m.URL("PF", 2020); ok {
		t.Error("URL(PF, 2020) should be missing")
	}
	if got := m.Forms(); !reflect.DeepEqual(got, []string{"EZ", "Full"}) {
		t.Errorf("Forms() = %v", got)
	}
	if got := m.Years("Full"); !reflect.DeepEqual(got, []int{2019, 2020}) {
		t.Errorf("Years(Full) = %v", got)
	}
	if got := m.Regions(); !reflect.DeepEqual(got, []string{"region1", "region2"}) {
		t.Errorf("Regions() = %v", got)
	}
	if m.Epostcard() != "https://example.org/epostcard.zip" {
		t.Errorf("Epostcard() = %q", m.Epostcard())
	}

	bmf := m.BMF()
	bmf["region9"] = "x"
	if len(m.BMF()) != 2 {
		t.Error("BMF() must return a copy")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(t.TempDir(), []string{"PF"}); err == nil {
		t.Error("expected error for missing registry file")
	}
}
