package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var (
	ErrNotPNG       = errors.New("not a png stream")
	ErrCorruptPNG   = errors.New("corrupt png stream")
	ErrBadKeyword   = errors.New("invalid text chunk keyword")
	ErrTextNotFound = errors.New("text chunk not found")
)

type chunk struct {
	typ  string
	data []byte
}

func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

func readChunks(data []byte) ([]chunk, error) {
	if !IsPNG(data) {
		return nil, ErrNotPNG
	}
	var chunks []chunk
	rest := data[len(pngSignature):]
	for len(rest) > 0 {
		if len(rest) < 12 {
			return nil, fmt.Errorf("%w: truncated chunk header", ErrCorruptPNG)
		}
		length := binary.BigEndian.Uint32(rest[:4])
		if uint64(length)+12 > uint64(len(rest)) {
			return nil, fmt.Errorf("%w: chunk length %d exceeds stream", ErrCorruptPNG, length)
		}
		typ := string(rest[4:8])
		body := rest[8 : 8+length]
		sum := binary.BigEndian.Uint32(rest[8+length : 12+length])
		if crc32.ChecksumIEEE(rest[4:8+length]) != sum {
			return nil, fmt.Errorf("%w: bad crc in %s chunk", ErrCorruptPNG, typ)
		}
		chunks = append(chunks, chunk{typ: typ, data: body})
		rest = rest[12+length:]
		if typ == "IEND" {
			break
		}
	}
	if len(chunks) == 0 || chunks[len(chunks)-1].typ != "IEND" {
		return nil, fmt.Errorf("%w: missing IEND", ErrCorruptPNG)
	}
	return chunks, nil
}

func writeChunks(chunks []chunk) []byte {
	size := len(pngSignature)
	for _, c := range chunks {
		size += 12 + len(c.data)
	}
	out := make([]byte, 0, size)
	out = append(out, pngSignature...)
	for _, c := range chunks {
		var header [8]byte
		binary.BigEndian.PutUint32(header[:4], uint32(len(c.data)))
		copy(header[4:], c.typ)
		out = append(out, header[:]...)
		out = append(out, c.data...)
		crc := crc32.NewIEEE()
		crc.Write(header[4:])
		crc.Write(c.data)
		out = binary.BigEndian.AppendUint32(out, crc.Sum32())
	}
	return out
}

func validKeyword(keyword string) bool {
	if len(keyword) < 1 || len(keyword) > 79 {
		return false
	}
	for i := 0; i < len(keyword); i++ {
		if keyword[i] < 0x20 || keyword[i] > 0x7e {
			return false
		}
	}
	return true
}

func textKeyword(c chunk) (string, []byte, bool) {
	if c.typ != "tEXt" {
		return "", nil, false
	}
	idx := bytes.IndexByte(c.data, 0)
	if idx < 0 {
		return "", nil, false
	}
	return string(c.data[:idx]), c.data[idx+1:], true
}

// SetText returns a copy of the PNG stream with a tEXt chunk for keyword
// placed before IEND. Existing tEXt chunks with the same keyword are dropped.
// Pixel data and every other chunk are copied unchanged.
func SetText(data []byte, keyword, text string) ([]byte, error) {
	if !validKeyword(keyword) {
		return nil, fmt.Errorf("%w: %q", ErrBadKeyword, keyword)
	}
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, len(keyword)+1+len(text))
	body = append(body, keyword...)
	body = append(body, 0)
	body = append(body, text...)

	out := make([]chunk, 0, len(chunks)+1)
	for _, c := range chunks {
		if k, _, ok := textKeyword(c); ok && k == keyword {
			continue
		}
		if c.typ == "IEND" {
			out = append(out, chunk{typ: "tEXt", data: body})
		}
		out = append(out, c)
	}
	return writeChunks(out), nil
}

// Text returns the value of the first tEXt chunk named keyword.
func Text(data []byte, keyword string) (string, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return "", err
	}
	for _, c := range chunks {
		if k, v, ok := textKeyword(c); ok && k == keyword {
			return string(v), nil
		}
	}
	return "", ErrTextNotFound
}
