// Package jsonbytes reads and writes fixed-size byte arrays as JSON arrays of
// numbers, the form the proxy API uses for keys, ids and signatures.
package jsonbytes

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal renders b as a JSON array of numbers.
func Marshal(b []byte) ([]byte, error) {
	nums := make([]uint16, len(b))
	for i, x := range b {
		nums[i] = uint16(x)
	}
	return json.Marshal(nums)
}

// UnmarshalSeq decodes a JSON array of bytes of any length. An empty array
// yields nil.
func UnmarshalSeq(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of bytes")
	}
	var nums []uint8
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, nil
	}
	return nums, nil
}

// UnmarshalFixed decodes a JSON array of exactly len(dst) bytes into dst.
func UnmarshalFixed(data []byte, dst []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("expected a JSON array of %d bytes", len(dst))
	}
	var nums []uint8
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	if len(nums) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(nums))
	}
	copy(dst, nums)
	return nil
}
