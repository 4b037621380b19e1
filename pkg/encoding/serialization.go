package encoding

import (
	"bytes"
	"encoding/gob"
)

// Gob encodes v with encoding/gob.
func Gob[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ungob decodes data produced by Gob into a new T.
func Ungob[T any](data []byte) (T, error) {
	var v T
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v)
	return v, err
}
