package langid

import "testing"

func TestDetect_ScriptRanges(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"你好，今天怎么样?", "zh"},
		{"こんにちは", "ja"},
		{"안녕하세요", "ko"},
		{"Привет, как дела?", "ru"},
		{"مرحبا", "ar"},
		{"नमस्ते", "hi"},
		{"สวัสดี", "th"},
		{"Καλημέρα", "el"},
		{"שלום", "he"},
	}

	for _, tt := range tests {
		lang, ok := Detect(tt.text)
		if !ok {
			t.Errorf("Detect(%q) returned no guess, want %s", tt.text, tt.want)
			continue
		}
		if lang.Code != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.text, lang.Code, tt.want)
		}
	}
}

func TestDetect_LatinHeuristics(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Hola, ¿cómo estás?", "es"},
		{"Bonjour, ça va?", "fr"},
		{"Ich weiß nicht, danke schön", "de"},
		{"Obrigado, não sei", "pt"},
		{"Grazie mille, ciao", "it"},
		{"Hello world, how are you?", "en"},
	}

	for _, tt := range tests {
		lang, ok := Detect(tt.text)
		if !ok {
			t.Errorf("Detect(%q) returned no guess, want %s", tt.text, tt.want)
			continue
		}
		if lang.Code != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.text, lang.Code, tt.want)
		}
	}
}

func TestDetect_NoGuess(t *testing.T) {
	for _, text := range []string{"", "   ", "12345", "!!!"} {
		if _, ok := Detect(text); ok {
			t.Errorf("Detect(%q) produced a guess, want none", text)
		}
	}
}

func TestByCode(t *testing.T) {
	if got := ByCode("EN-us"); got.Code != "en" || got.Name != "English" {
		t.Errorf("ByCode(\"EN-us\") = %+v, want English", got)
	}
	if got := ByCode("xx"); got.Code != "xx" || got.Name != "xx" {
		t.Errorf("ByCode(\"xx\") = %+v, want bare code", got)
	}
}

func TestEqual(t *testing.T) {
	a := Language{Code: "en", Name: "English"}
	b := Language{Code: "en", Name: "anything"}
	if !a.Equal(b) {
		t.Error("languages with the same code should be equal")
	}
	if a.Equal(Chinese) {
		t.Error("en should not equal zh")
	}
}
