package metadata

import (
	"testing"

	"github.com/madmax100/licitia/internal/pdfreader"
)

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"slash format", "Emitido em 15/03/2024 nesta cidade.", "2024-03-15", true},
		{"dot format", "Data: 01.12.2023", "2023-12-01", true},
		{"dash format", "5-6-2022", "2022-06-05", true},
		{"two digit year recent", "31/01/24", "2024-01-31", true},
		{"two digit year old", "31/01/99", "1999-01-31", true},
		{"textual month", "São Paulo, 12 de março de 2024.", "2024-03-12", true},
		{"textual month unaccented", "12 de marco de 2024", "2024-03-12", true},
		{"invalid day rolls over", "31/02/2024 e depois 15/03/2024", "2024-03-15", true},
		{"unknown month word", "12 de foobar de 2024", "", false},
		{"no date at all", "nenhuma data neste texto", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDate(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractDate() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"D:20240131120000Z", "2024-01-31", true},
		{"D:20240131", "2024-01-31", true},
		{"20240131", "2024-01-31", true},
		{"D:2024", "", false},
		{"D:abcdefgh", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePDFDate(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePDFDate(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"first good line", "TERMO DE HOMOLOGAÇÃO\ncorpo do documento segue aqui", "TERMO DE HOMOLOGAÇÃO"},
		{"skips short lines", "42\nFl.\nATA DE SESSÃO PÚBLICA\nresto", "ATA DE SESSÃO PÚBLICA"},
		{"blank lines ignored", "\n\n\nPARECER JURÍDICO\n", "PARECER JURÍDICO"},
		{"nothing qualifies", "ab\ncd\n", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.text); got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyze_Degrades(t *testing.T) {
	pages := []pdfreader.Page{
		{Number: 3, Text: "x"},
		{Number: 4, Text: "y"},
	}

	md := Analyze(pages, pdfreader.DocInfo{})
	if md.Title != TitleUnknown {
		t.Errorf("expected TitleUnknown, got %q", md.Title)
	}
	if md.Date != DateUnknown {
		t.Errorf("expected DateUnknown, got %q", md.Date)
	}
	if md.PageCount != 2 {
		t.Errorf("expected page count 2, got %d", md.PageCount)
	}
}

func TestAnalyze_InfoDictFallback(t *testing.T) {
	pages := []pdfreader.Page{{Number: 1, Text: "ab\n"}}
	info := pdfreader.DocInfo{
		Title:        "Edital 12/2024",
		CreationDate: "D:20240215093000-03'00'",
	}

	md := Analyze(pages, info)
	if md.Title != "Edital 12/2024" {
		t.Errorf("expected info-dict title, got %q", md.Title)
	}
	if md.Date != "2024-02-15" {
		t.Errorf("expected info-dict date, got %q", md.Date)
	}
}

func TestAnalyze_TextWins(t *testing.T) {
	pages := []pdfreader.Page{
		{Number: 1, Text: "LAUDO TÉCNICO Nº 8\nEmitido em 10/10/2023"},
	}
	info := pdfreader.DocInfo{Title: "scan0001.pdf", CreationDate: "D:20240101"}

	md := Analyze(pages, info)
	if md.Title != "LAUDO TÉCNICO Nº 8" {
		t.Errorf("expected text title to win, got %q", md.Title)
	}
	if md.Date != "2023-10-10" {
		t.Errorf("expected text date to win, got %q", md.Date)
	}
}

func TestJoinPages(t *testing.T) {
	pages := []pdfreader.Page{
		{Number: 1, Text: "um"},
		{Number: 2, Text: "dois"},
	}
	if got := JoinPages(pages); got != "um\ndois" {
		t.Errorf("JoinPages() = %q", got)
	}
	if got := JoinPages(nil); got != "" {
		t.Errorf("JoinPages(nil) = %q", got)
	}
}
