package pngmeta

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

// CardKeyword is the tEXt keyword character-card tools read.
const CardKeyword = "chara"

// EncodeCard serializes doc as compact JSON and base64-encodes it.
func EncodeCard(doc any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding card json: %w", err)
	}
	payload := bytes.TrimRight(buf.Bytes(), "\n")
	return base64.StdEncoding.EncodeToString(payload), nil
}

func DecodeCard(text string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decoding card base64: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding card json: %w", err)
	}
	return doc, nil
}

// ToPNG returns data unchanged when it is already a PNG stream and otherwise
// decodes it as JPEG, GIF or WebP and re-encodes it as PNG.
func ToPNG(data []byte) ([]byte, error) {
	if IsPNG(data) {
		return data, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("re-encoding %s as png: %w", format, err)
	}
	return buf.Bytes(), nil
}

// EmbedCard returns a PNG carrying doc under CardKeyword.
func EmbedCard(data []byte, doc any) ([]byte, error) {
	pngData, err := ToPNG(data)
	if err != nil {
		return nil, err
	}
	text, err := EncodeCard(doc)
	if err != nil {
		return nil, err
	}
	out, err := SetText(pngData, CardKeyword, text)
	if err != nil {
		return nil, fmt.Errorf("embedding card: %w", err)
	}
	return out, nil
}

func ReadCard(data []byte) (map[string]any, error) {
	text, err := Text(data, CardKeyword)
	if err != nil {
		return nil, err
	}
	return DecodeCard(text)
}
