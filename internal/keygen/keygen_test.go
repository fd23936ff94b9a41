package keygen

import (
	"errors"
	"testing"

	"github.com/matsen/bibshelf/internal/reference"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		author []string
		year   string
		title  string
		want   string
	}{
		{"last first", []string{"Smith, John"}, "2020", "Deep Learning", "smith2020deep"},
		{"stop words skipped", []string{"Smith, John"}, "2020", "The Art of Sampling", "smith2020art"},
		{"numbers skipped", []string{"Doe, Jane"}, "2019", "3 Body-Problem Solutions", "doe2019body"},
		{"slash cut", []string{"Doe, Jane"}, "2019", "Input/Output Models", "doe2019input"},
		{"hyphenated surname", []string{"Garcia-Lopez, Maria"}, "2018", "Graphs", "garcia2018graphs"},
		{"first last form", []string{"John Smith"}, "2021", "Graphs", "johnsmith2021graphs"},
		{"punctuation stripped", []string{"O'Brien, Pat"}, "2017", "What's New?", "obrien2017whats"},
		{"only first author", []string{"Smith, John", "Doe, Jane"}, "2020", "Deep Learning", "smith2020deep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &reference.Entry{Author: tt.author, Year: tt.year, Title: tt.title}
			got, err := Generate(e)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Generate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	e := &reference.Entry{Author: []string{"Smith, John"}, Year: "2020", Title: "Deep Learning"}
	first, _ := Generate(e)
	second, _ := Generate(e)
	if first != second {
		t.Errorf("Generate() not deterministic: %q vs %q", first, second)
	}
}

func TestGenerate_InsufficientFields(t *testing.T) {
	tests := []struct {
		name string
		e    *reference.Entry
	}{
		{"no author", &reference.Entry{Year: "2020", Title: "Deep Learning"}},
		{"only stop words", &reference.Entry{Author: []string{"Smith"}, Year: "2020", Title: "The Of 42"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Generate(tt.e); !errors.Is(err, ErrInsufficientFields) {
				t.Errorf("Generate() error = %v, want ErrInsufficientFields", err)
			}
		})
	}
}
