package models

import "testing"

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Language
		wantErr bool
	}{
		{name: "english", input: "en", want: LanguageEnglish},
		{name: "french", input: "fr", want: LanguageFrench},
		{name: "uppercase", input: "EN", want: LanguageEnglish},
		{name: "padded", input: "  fr  ", want: LanguageFrench},
		{name: "german source language", input: "de", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "english", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLanguage(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLanguage(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLanguageTableNames(t *testing.T) {
	if got := LanguageEnglish.Table(); got != "vocab_de_en" {
		t.Errorf("english table = %q, want vocab_de_en", got)
	}
	if got := LanguageFrench.Table(); got != "vocab_de_fr" {
		t.Errorf("french table = %q, want vocab_de_fr", got)
	}
	if got := LanguageEnglish.Column(); got != "en" {
		t.Errorf("english column = %q, want en", got)
	}
	if got := LanguageFrench.Key(); got != "de_fr" {
		t.Errorf("french key = %q, want de_fr", got)
	}
}

func TestLanguageFromKeyRoundTrip(t *testing.T) {
	for _, lang := range Languages() {
		got, err := LanguageFromKey(lang.Key())
		if err != nil {
			t.Fatalf("LanguageFromKey(%q) failed: %v", lang.Key(), err)
		}
		if got != lang {
			t.Errorf("LanguageFromKey(%q) = %v, want %v", lang.Key(), got, lang)
		}
	}

	if _, err := LanguageFromKey("de_es"); err == nil {
		t.Error("LanguageFromKey(de_es) expected error")
	}
}
