package unit

import (
	"bytes"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Magic prefixes every encoded unit.
const Magic = "BDU1"

var ErrBadMagic = errors.New("not a compiled unit")

// Encode serializes u as Magic followed by a BSON document.
func Encode(u *Unit) ([]byte, error) {
	doc, err := bson.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", u.Name, err)
	}
	out := make([]byte, 0, len(Magic)+len(doc))
	out = append(out, Magic...)
	return append(out, doc...), nil
}

func Decode(data []byte) (*Unit, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, ErrBadMagic
	}
	u := new(Unit)
	if err := bson.Unmarshal(data[len(Magic):], u); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	return u, nil
}
