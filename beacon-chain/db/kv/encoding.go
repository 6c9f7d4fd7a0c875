package kv

import (
	"reflect"

	fssz "github.com/ferranbt/fastssz"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

func decode(data []byte, dst fssz.Unmarshaler) error {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return err
	}
	return dst.UnmarshalSSZ(data)
}

func encode(obj fssz.Marshaler) ([]byte, error) {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return nil, errors.New("cannot encode nil object")
	}
	enc, err := obj.MarshalSSZ()
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, enc), nil
}
