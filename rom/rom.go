// Package rom reads and writes Boneless program images.
package rom

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Format is a program image file format.
type Format int

//go:generate go tool stringer -linecomment -type=Format
const (
	FORMAT_HEX    = Format(0) // hex
	FORMAT_BINARY = Format(1) // bin
)

// FormatOf selects an image format by file extension: ".bin" is binary,
// anything else is hex.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return FORMAT_BINARY
	}
	return FORMAT_HEX
}

// Read reads an image in this format.
func (format Format) Read(r io.Reader) (words []uint16, err error) {
	if format == FORMAT_BINARY {
		return ReadBinary(r)
	}
	return ReadHex(r)
}

// Write writes an image in this format.
func (format Format) Write(w io.Writer, words []uint16) (err error) {
	if format == FORMAT_BINARY {
		return WriteBinary(w, words)
	}
	return WriteHex(w, words)
}

// ReadHex reads a hex image: one word per line. Blank lines, and text
// after a '#' or ';', are ignored.
func ReadHex(r io.Reader) (words []uint16, err error) {
	scanner := bufio.NewScanner(r)

	lineno := 0
	for scanner.Scan() {
		line := scanner.Text()
		lineno++

		text, _, _ := strings.Cut(line, "#")
		text, _, _ = strings.Cut(text, ";")
		text = strings.TrimSpace(text)
		if len(text) == 0 {
			continue
		}

		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
		var value uint64
		value, err = strconv.ParseUint(text, 16, 16)
		if err != nil {
			err = &ErrLine{LineNo: lineno, Line: line, Err: ErrHexWord}
			return
		}

		words = append(words, uint16(value))
	}

	err = scanner.Err()
	return
}

// WriteHex writes a hex image, one "%04x" word per line.
func WriteHex(w io.Writer, words []uint16) (err error) {
	bw := bufio.NewWriter(w)
	for _, word := range words {
		_, err = fmt.Fprintf(bw, "%04x\n", word)
		if err != nil {
			return
		}
	}

	return bw.Flush()
}

// ReadBinary reads a big-endian binary image.
func ReadBinary(r io.Reader) (words []uint16, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}

	if len(data)%2 != 0 {
		err = ErrOddLength
		return
	}

	words = make([]uint16, len(data)/2)
	for n := range words {
		words[n] = binary.BigEndian.Uint16(data[n*2:])
	}

	return
}

// WriteBinary writes a big-endian binary image.
func WriteBinary(w io.Writer, words []uint16) (err error) {
	return binary.Write(w, binary.BigEndian, words)
}
