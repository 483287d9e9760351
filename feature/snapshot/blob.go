package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"roleboard/core/utils"
)

// Blob is one character's raw detail payload as returned by the upstream.
type Blob map[string]any

// RoleID returns role.roleId as a string, or "" when absent.
func (b Blob) RoleID() string {
	role, ok := b["role"].(map[string]any)
	if !ok {
		return ""
	}
	id, ok := role["roleId"]
	if !ok || id == nil {
		return ""
	}
	return utils.ToString(id)
}

// RoleName returns role.roleName, or "" when absent.
func (b Blob) RoleName() string {
	role, ok := b["role"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := role["roleName"].(string)
	return name
}

// HasEquipment reports whether phantomData.equipPhantomList is a non-empty list.
func (b Blob) HasEquipment() bool {
	phantom, ok := b["phantomData"].(map[string]any)
	if !ok {
		return false
	}
	list, ok := phantom["equipPhantomList"].([]any)
	return ok && len(list) > 0
}

// ChainNum counts the unlocked entries of chainList.
func (b Blob) ChainNum() int {
	chains, ok := b["chainList"].([]any)
	if !ok {
		return 0
	}
	n := 0
	for _, c := range chains {
		entry, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if unlocked, _ := entry["unlocked"].(bool); unlocked {
			n++
		}
	}
	return n
}

// Equal compares two blobs structurally.
func (b Blob) Equal(other Blob) bool {
	left, err := b.Canonical()
	if err != nil {
		return false
	}
	right, err := other.Canonical()
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// Canonical encodes the blob with sorted keys.
func (b Blob) Canonical() ([]byte, error) {
	return json.Marshal(map[string]any(b))
}

// DecodeBlob parses a stored raw_data column.
func DecodeBlob(raw []byte) (Blob, error) {
	var b Blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("failed to decode raw data: %w", err)
	}
	return b, nil
}

// Clone deep-copies the blob through JSON.
func (b Blob) Clone() Blob {
	raw, err := b.Canonical()
	if err != nil {
		return b
	}
	out, err := DecodeBlob(raw)
	if err != nil {
		return b
	}
	return out
}
