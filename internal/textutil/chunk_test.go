package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func assertChunks(t *testing.T, text string, chunks []string, maxRunes int) {
	t.Helper()
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > maxRunes {
			t.Fatalf("chunk %d has %d runes, limit %d: %q", i, n, maxRunes, chunk)
		}
		if chunk == "" {
			t.Fatalf("chunk %d is empty", i)
		}
	}
	if got, want := stripSpace(strings.Join(chunks, "")), stripSpace(text); got != want {
		t.Fatalf("chunks do not reassemble input:\n got %q\nwant %q", got, want)
	}
}

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	chunks := Chunk("  こんにちは。  ", 100)
	if len(chunks) != 1 || chunks[0] != "こんにちは。" {
		t.Fatalf("unexpected chunks %q", chunks)
	}
}

func TestChunkEmpty(t *testing.T) {
	if chunks := Chunk(" \n ", 10); chunks != nil {
		t.Fatalf("expected nil, got %q", chunks)
	}
}

func TestChunkPrefersSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second one follows! Third ends it?"
	chunks := Chunk(text, 25)
	want := []string{"First sentence here.", "Second one follows!", "Third ends it?"}
	if len(chunks) != len(want) {
		t.Fatalf("got %q, want %q", chunks, want)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
	assertChunks(t, text, chunks, 25)
}

func TestChunkPacksSentences(t *testing.T) {
	text := "A. B. C. D."
	chunks := Chunk(text, 6)
	if len(chunks) != 2 || chunks[0] != "A. B." || chunks[1] != "C. D." {
		t.Fatalf("unexpected chunks %q", chunks)
	}
}

func TestChunkJapaneseSentences(t *testing.T) {
	text := "今日はいい天気ですね。散歩に行きましょう！「本当？」と彼は言った。"
	chunks := Chunk(text, 12)
	assertChunks(t, text, chunks, 12)
	if chunks[0] != "今日はいい天気ですね。" {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
}

func TestChunkFallsBackToWords(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := Chunk(text, 10)
	assertChunks(t, text, chunks, 10)
	if chunks[0] != "one two" {
		t.Fatalf("unexpected first chunk %q", chunks[0])
	}
}

func TestChunkHardCutsLongWords(t *testing.T) {
	text := strings.Repeat("가", 25)
	chunks := Chunk(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %q", len(chunks), chunks)
	}
	assertChunks(t, text, chunks, 10)
}

func TestChunkDisabledLimit(t *testing.T) {
	text := strings.Repeat("word ", 100)
	if chunks := Chunk(text, 0); len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
}
