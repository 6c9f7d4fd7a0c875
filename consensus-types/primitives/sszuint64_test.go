package primitives_test

import (
	"encoding/hex"
	"reflect"
	"strings"
	"testing"

	types "github.com/sextantlabs/sextant/consensus-types/primitives"
)

func hexDecodeOrDie(t *testing.T, str string) []byte {
	decoded, err := hex.DecodeString(str)
	if err != nil {
		t.Fatalf("hex decode failed: %v", err)
	}
	return decoded
}

func TestSSZUint64_Limit(t *testing.T) {
	sszType := types.SSZUint64(0)
	serializedObj := [7]byte{}
	err := sszType.UnmarshalSSZ(serializedObj[:])
	if err == nil || !strings.Contains(err.Error(), "expected buffer of length") {
		t.Errorf("Expected Error = %s, got: %v", "expected buffer of length", err)
	}
}

func TestSSZUint64_RoundTrip(t *testing.T) {
	fixedVal := uint64(8)
	sszVal := types.SSZUint64(fixedVal)

	marshalledObj, err := sszVal.MarshalSSZ()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	newVal := types.SSZUint64(0)

	err = newVal.UnmarshalSSZ(marshalledObj)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if fixedVal != uint64(newVal) {
		t.Errorf("Unequal: %v = %v", fixedVal, uint64(newVal))
	}
}

func TestSSZUint64(t *testing.T) {
	tests := []struct {
		name            string
		serializedBytes []byte
		actualValue     uint64
		root            []byte
		wantErr         bool
	}{
		{
			name:            "max",
			serializedBytes: hexDecodeOrDie(t, "ffffffffffffffff"),
			actualValue:     18446744073709551615,
			root:            hexDecodeOrDie(t, "ffffffffffffffff000000000000000000000000000000000000000000000000"),
			wantErr:         false,
		},
		{
			name:            "random",
			serializedBytes: hexDecodeOrDie(t, "357c8de9d7204577"),
			actualValue:     8594311575614880821,
			root:            hexDecodeOrDie(t, "357c8de9d7204577000000000000000000000000000000000000000000000000"),
			wantErr:         false,
		},
		{
			name:            "zero",
			serializedBytes: hexDecodeOrDie(t, "0000000000000000"),
			actualValue:     0,
			root:            hexDecodeOrDie(t, "0000000000000000000000000000000000000000000000000000000000000000"),
			wantErr:         false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s types.SSZUint64
			if err := s.UnmarshalSSZ(tt.serializedBytes); (err != nil) != tt.wantErr {
				t.Errorf("SSZUint64.UnmarshalSSZ() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.actualValue != uint64(s) {
				t.Errorf("SSZUint64.UnmarshalSSZ() = %v, want %v", uint64(s), tt.actualValue)
			}

			serializedBytes, err := s.MarshalSSZ()
			if err != nil {
				t.Errorf("SSZUint64.MarshalSSZ() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(tt.serializedBytes, serializedBytes) {
				t.Errorf("SSZUint64.MarshalSSZ() = %v, want %v", serializedBytes, tt.serializedBytes)
			}

			htr, err := s.HashTreeRoot()
			if err != nil {
				t.Errorf("SSZUint64.HashTreeRoot() unexpected error = %v", err)
			}
			if !reflect.DeepEqual(tt.root, htr[:]) {
				t.Errorf("SSZUint64.HashTreeRoot() = %v, want %v", htr[:], tt.root)
			}
		})
	}
}

func TestSlot_Casting(t *testing.T) {
	slot := types.Slot(42)
	if uint64(slot) != 42 {
		t.Errorf("Unequal: %v = %v", slot, 42)
	}
	if slot.Add(1) != types.Slot(43) {
		t.Errorf("Unequal: %v = %v", slot.Add(1), 43)
	}
	if slot.Sub(2) != types.Slot(40) {
		t.Errorf("Unequal: %v = %v", slot.Sub(2), 40)
	}
	if slot.Mul(2) != types.Slot(84) {
		t.Errorf("Unequal: %v = %v", slot.Mul(2), 84)
	}
	if slot.Div(2) != types.Slot(21) {
		t.Errorf("Unequal: %v = %v", slot.Div(2), 21)
	}
	if slot.Mod(5) != types.Slot(2) {
		t.Errorf("Unequal: %v = %v", slot.Mod(5), 2)
	}
}

func TestSlot_SafeMath(t *testing.T) {
	slot := types.Slot(1 << 63)
	if _, err := slot.SafeMul(2); err == nil {
		t.Error("SafeMul expected overflow error")
	}
	if _, err := slot.SafeAdd(1 << 63); err == nil {
		t.Error("SafeAdd expected overflow error")
	}
	if _, err := types.Slot(0).SafeSub(1); err == nil {
		t.Error("SafeSub expected underflow error")
	}
	if _, err := slot.SafeDiv(0); err == nil {
		t.Error("SafeDiv expected division by zero error")
	}
}

func TestEpoch_Casting(t *testing.T) {
	epoch := types.Epoch(33)
	if epoch.Add(1) != types.Epoch(34) {
		t.Errorf("Unequal: %v = %v", epoch.Add(1), 34)
	}
	if epoch.Sub(3) != types.Epoch(30) {
		t.Errorf("Unequal: %v = %v", epoch.Sub(3), 30)
	}
	if epoch.Div(11) != types.Epoch(3) {
		t.Errorf("Unequal: %v = %v", epoch.Div(11), 3)
	}
	if epoch.Mul(2) != types.Epoch(66) {
		t.Errorf("Unequal: %v = %v", epoch.Mul(2), 66)
	}
}
