package yen

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "grouped with suffix", input: "12,345円", want: 12345},
		{name: "plain digits", input: "9800", want: 9800},
		{name: "prefix glyph", input: "¥1,200", want: 1200},
		{name: "fullwidth glyph", input: "￥500", want: 500},
		{name: "english marker", input: "300 yen", want: 300},
		{name: "surrounding space", input: "  4,000 円 ", want: 4000},
		{name: "zero is invalid", input: "0円", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "no digits", input: "円", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	text := "通常買取価格：12,345円（上限 ¥20,000 まで）ポイント 300yen"

	matches := Find(text)
	if len(matches) != 3 {
		t.Fatalf("Find() returned %d matches, want 3", len(matches))
	}

	wantValues := []int{12345, 20000, 300}
	for i, want := range wantValues {
		if matches[i].Value != want {
			t.Errorf("match %d value = %d, want %d", i, matches[i].Value, want)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Index <= matches[i-1].Index {
			t.Errorf("matches not ordered by position: %d <= %d", matches[i].Index, matches[i-1].Index)
		}
	}
}

func TestFindDigitCount(t *testing.T) {
	matches := Find("1,234円")
	if len(matches) != 1 {
		t.Fatalf("Find() returned %d matches, want 1", len(matches))
	}
	if matches[0].Digits != 4 {
		t.Fatalf("Digits = %d, want 4", matches[0].Digits)
	}
}

func TestFindIgnoresBareNumbers(t *testing.T) {
	if matches := Find("在庫 1200 点"); len(matches) != 0 {
		t.Fatalf("bare number should not match, got %v", matches)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{45, "¥45"},
		{500, "¥500"},
		{1234, "¥1,234"},
		{12345, "¥12,345"},
		{123456, "¥123,456"},
		{5000000, "¥5,000,000"},
	}

	for _, tt := range tests {
		if got := Format(tt.value); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, value := range []int{1, 999, 1000, 98765, 5000000} {
		got, err := Parse(Format(value))
		if err != nil {
			t.Fatalf("Parse(Format(%d)) error: %v", value, err)
		}
		if got != value {
			t.Fatalf("Parse(Format(%d)) = %d", value, got)
		}
	}
}
