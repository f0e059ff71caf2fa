package detector

import (
	"testing"

	lingua "github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// shared across tests: building the models is the slow part
var d = New(lingua.English, lingua.French, lingua.German, lingua.Spanish, lingua.Ukrainian)

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLang lingua.Language
		wantOK   bool
	}{
		{"empty text", "", lingua.Unknown, false},
		{"blank text", "   \n", lingua.Unknown, false},
		{"english text", "Hello, this is a test in English.", lingua.English, true},
		{"ukrainian text", "Привіт, це тест українською мовою.", lingua.Ukrainian, true},
		{"german text", "Hallo, das ist ein Test auf Deutsch.", lingua.German, true},
		{"french text", "Bonjour, ceci est un test en français.", lingua.French, true},
		{"spanish text", "Hola, esto es una prueba en español.", lingua.Spanish, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, ok := d.Detect(tt.text)
			if ok != tt.wantOK {
				t.Errorf("Detect(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && lang != tt.wantLang {
				t.Errorf("Detect(%q) = %v, want %v", tt.text, lang, tt.wantLang)
			}
		})
	}
}

func TestDetector_DetectTag(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantTag language.Tag
		wantOK  bool
	}{
		{"empty text", "", language.Und, false},
		{"french", "Le contrat est signé par les deux parties aujourd'hui.", language.French, true},
		{"english", "The server restarts every night at midnight.", language.English, true},
		{"ukrainian", "Сервер перезапускається щоночі опівночі.", language.Ukrainian, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, ok := d.DetectTag(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("DetectTag(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if tag != tt.wantTag {
				t.Errorf("DetectTag(%q) = %v, want %v", tt.text, tag, tt.wantTag)
			}
		})
	}
}
