package kv

import (
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

type sszMarshaler interface {
	MarshalSSZ() ([]byte, error)
}

type sszUnmarshaler interface {
	UnmarshalSSZ([]byte) error
}

// encode the object into an ssz-serialized, snappy-compressed value.
func encode(obj sszMarshaler) ([]byte, error) {
	enc, err := obj.MarshalSSZ()
	if err != nil {
		return nil, errors.Wrap(err, "could not ssz-marshal object")
	}
	return snappy.Encode(nil, enc), nil
}

// decode a snappy-compressed, ssz-serialized value into the given object.
func decode(data []byte, dst sszUnmarshaler) error {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "could not snappy-decode value")
	}
	return dst.UnmarshalSSZ(data)
}
