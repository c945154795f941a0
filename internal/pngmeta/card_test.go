package pngmeta

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 80), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

func sampleDocument() map[string]any {
	return map[string]any{
		"spec":         "chara_card_v2",
		"spec_version": "2.0",
		"data": map[string]any{
			"name":                "Ælfwyn 🌙",
			"description":         "Speaks <softly> & \"quotes\" things.\nSecond line.",
			"tags":                []any{"elf", "mage", "日本語"},
			"extensions":          map[string]any{"depth": float64(4), "ratio": 0.25, "enabled": true},
			"alternate_greetings": []any{},
			"character_book":      nil,
		},
		"nested": []any{map[string]any{"k": nil}, []any{float64(1), "two"}},
	}
}

func TestEmbedCard_RoundTrip(t *testing.T) {
	doc := sampleDocument()
	out, err := EmbedCard(samplePNG(t), doc)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	got, err := ReadCard(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEmbedCard_PreservesPixels(t *testing.T) {
	orig := samplePNG(t)
	out, err := EmbedCard(orig, map[string]any{"name": "x"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	a, err := png.Decode(bytes.NewReader(orig))
	if err != nil {
		t.Fatalf("decode original: %v", err)
	}
	b, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode embedded: %v", err)
	}
	if a.Bounds() != b.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", a.Bounds(), b.Bounds())
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("pixel %d,%d changed", x, y)
			}
		}
	}
}

func TestEmbedCard_ReplacesExistingChunk(t *testing.T) {
	first, err := EmbedCard(samplePNG(t), map[string]any{"name": "old"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	second, err := EmbedCard(first, map[string]any{"name": "new"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if n := bytes.Count(second, []byte("tEXtchara\x00")); n != 1 {
		t.Fatalf("expected exactly one chara chunk, got %d", n)
	}
	got, err := ReadCard(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["name"] != "new" {
		t.Fatalf("expected replaced payload, got %v", got)
	}
}

func TestEmbedCard_ConvertsJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encoding jpeg: %v", err)
	}

	out, err := EmbedCard(buf.Bytes(), map[string]any{"name": "jpeg"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if !IsPNG(out) {
		t.Fatalf("expected png output")
	}
	if _, err := png.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output not decodable: %v", err)
	}
}

func TestEmbedCard_RejectsGarbage(t *testing.T) {
	if _, err := EmbedCard([]byte("not an image"), map[string]any{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEncodeCard_Compact(t *testing.T) {
	text, err := EncodeCard(map[string]any{"a": "<b>", "c": []any{float64(1)}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		t.Fatalf("base64: %v", err)
	}
	if want := `{"a":"<b>","c":[1]}`; string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}

func TestText(t *testing.T) {
	data := samplePNG(t)
	if _, err := Text(data, CardKeyword); !errors.Is(err, ErrTextNotFound) {
		t.Fatalf("expected ErrTextNotFound, got %v", err)
	}

	out, err := SetText(data, "Comment", "hello")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := Text(out, "Comment")
	if err != nil || got != "hello" {
		t.Fatalf("expected hello, got %q (%v)", got, err)
	}
	if !bytes.HasSuffix(out, data[len(data)-12:]) {
		t.Fatalf("expected IEND to remain last")
	}
}

func TestSetText_Errors(t *testing.T) {
	data := samplePNG(t)

	if _, err := SetText(data, "", "x"); !errors.Is(err, ErrBadKeyword) {
		t.Fatalf("expected ErrBadKeyword, got %v", err)
	}
	if _, err := SetText(data, strings.Repeat("k", 80), "x"); !errors.Is(err, ErrBadKeyword) {
		t.Fatalf("expected ErrBadKeyword for long keyword, got %v", err)
	}
	if _, err := SetText([]byte("GIF89a"), "chara", "x"); !errors.Is(err, ErrNotPNG) {
		t.Fatalf("expected ErrNotPNG, got %v", err)
	}

	corrupt := append([]byte(nil), data...)
	corrupt[len(pngSignature)+10] ^= 0xff
	if _, err := SetText(corrupt, "chara", "x"); !errors.Is(err, ErrCorruptPNG) {
		t.Fatalf("expected ErrCorruptPNG, got %v", err)
	}

	truncated := data[:len(data)-12]
	if _, err := SetText(truncated, "chara", "x"); !errors.Is(err, ErrCorruptPNG) {
		t.Fatalf("expected ErrCorruptPNG for missing IEND, got %v", err)
	}
}
