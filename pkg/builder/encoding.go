// Copyright (c) 2026 Pranav Saji. All rights reserved.
// SPDX-License-Identifier: MIT

package builder

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DecodeDump turns raw dump bytes into text, trying UTF-8 first, then
// BOM-marked and heuristic UTF-16, then CP1252 and Latin-1, and finally
// lossy UTF-8 with replacement runes. It never fails; worst case is a
// lossy decode. The result has unified newlines and no NUL bytes.
func DecodeDump(data []byte) string {
	return safeNormalize(decodeBytes(data))
}

func decodeBytes(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):])
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		if s, ok := decodeUTF16(data); ok {
			return s
		}
	}
	if utf8.Valid(data) {
		if looksUTF16(data) {
			if s, ok := decodeUTF16(data); ok {
				return s
			}
		}
		return string(data)
	}
	if looksUTF16(data) {
		if s, ok := decodeUTF16(data); ok {
			return s
		}
	}
	if s, err := charmap.Windows1252.NewDecoder().String(string(data)); err == nil {
		return s
	}
	if s, err := charmap.ISO8859_1.NewDecoder().String(string(data)); err == nil {
		return s
	}
	logf("decode: falling back to lossy UTF-8 for %d bytes", len(data))
	return strings.ToValidUTF8(string(data), "�")
}

func decodeUTF16(data []byte) (string, bool) {
	endian := unicode.LittleEndian
	if bytes.HasPrefix(data, bomUTF16BE) {
		endian = unicode.BigEndian
	} else if !bytes.HasPrefix(data, bomUTF16LE) && looksBigEndianUTF16(data) {
		endian = unicode.BigEndian
	}
	dec := unicode.UTF16(endian, unicode.UseBOM).NewDecoder()
	s, err := dec.String(string(data))
	if err != nil {
		return "", false
	}
	return s, true
}

// looksUTF16 spots BOM-less UTF-16 of mostly-ASCII text by the density
// of NUL bytes, which valid UTF-8 dumps never carry.
func looksUTF16(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	zeros := bytes.Count(sample, []byte{0})
	return zeros*3 > len(sample)
}

func looksBigEndianUTF16(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	evenZeros := 0
	for i := 0; i+1 < len(sample); i += 2 {
		if sample[i] == 0 {
			evenZeros++
		}
	}
	return evenZeros*4 > len(sample)
}

// safeNormalize unifies CRLF/CR newlines and strips NUL bytes.
func safeNormalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\x00", "")
}
