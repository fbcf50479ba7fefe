package render

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	content := "TÍTULO: A Cidade Submersa\n" +
		"\n" +
		"CAPÍTULO 1: O Chamado\n" +
		"O mar estava calmo naquela manhã.\n" +
		"\n" +
		"\n" +
		"CAPÍTULO 2: A Descida\n" +
		"  Ninguém acreditou no que viram.  \n"

	want := []Block{
		{Kind: KindTitle, Text: "A Cidade Submersa"},
		{Kind: KindSpacer},
		{Kind: KindChapter, Text: "CAPÍTULO 1: O Chamado"},
		{Kind: KindParagraph, Text: "O mar estava calmo naquela manhã."},
		{Kind: KindSpacer},
		{Kind: KindChapter, Text: "CAPÍTULO 2: A Descida"},
		{Kind: KindParagraph, Text: "Ninguém acreditou no que viram."},
		{Kind: KindSpacer},
	}

	got := Parse(content)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParseCollapsesBlankRuns(t *testing.T) {
	got := Parse("um\n\n\n\n\ndois")
	want := []Block{
		{Kind: KindParagraph, Text: "um"},
		{Kind: KindSpacer},
		{Kind: KindParagraph, Text: "dois"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParseKeepsOneSpacerAtEdges(t *testing.T) {
	got := Parse("\n\ntexto\n\n")
	want := []Block{
		{Kind: KindSpacer},
		{Kind: KindParagraph, Text: "texto"},
		{Kind: KindSpacer},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParseLeadingBlankRunBeforeTitle(t *testing.T) {
	got := Parse("\n\nTÍTULO: Meu Livro")
	want := []Block{
		{Kind: KindSpacer},
		{Kind: KindTitle, Text: "Meu Livro"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(""); len(got) != 0 {
		t.Errorf("Parse(\"\") = %#v, want empty", got)
	}
}

func TestParseTitleMarkerCaseInsensitive(t *testing.T) {
	got := Parse("título: minúsculo")
	if len(got) != 1 || got[0].Kind != KindTitle || got[0].Text != "minúsculo" {
		t.Errorf("Parse() = %#v, want one title block", got)
	}
}

// 章节标记是严格格式：大写、数字前单个空格、数字后紧跟冒号
func TestParseChapterMarkerExact(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Kind
	}{
		{"标准章节头", "CAPÍTULO 3: Também", KindChapter},
		{"小写不匹配", "capítulo 3: também", KindParagraph},
		{"冒号前有空格", "CAPÍTULO 3 : Também", KindParagraph},
		{"缺少编号", "CAPÍTULO: Também", KindParagraph},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.line)
			if len(got) != 1 || got[0].Kind != tt.want {
				t.Errorf("Parse(%q) = %#v, want kind %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"首行标题", "TÍTULO: O Último Farol\n\nCAPÍTULO 1: Início", "O Último Farol"},
		{"标题前有正文", "rascunho\nTÍTULO: Mar Adentro", "Mar Adentro"},
		{"无标题行", "CAPÍTULO 1: Início\ntexto", FallbackTitle},
		{"标题行为空", "TÍTULO:\ntexto", FallbackTitle},
		{"空正文", "", FallbackTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractTitle(tt.content); got != tt.want {
				t.Errorf("ExtractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
