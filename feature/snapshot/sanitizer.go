package snapshot

import (
	"errors"
	"fmt"

	"roleboard/core/utils"

	"go.uber.org/zap"
)

var (
	errMissingRole   = errors.New("missing role")
	errMissingRoleID = errors.New("missing role id")
	errMissingLevel  = errors.New("missing level")
)

// DefaultSetRenames maps legacy equipment-set labels to their current names.
var DefaultSetRenames = map[string]string{
	"雷曜日冕之冠": "荣斗铸锋之冠",
}

// Sanitizer repairs raw character blobs before they are trusted.
type Sanitizer struct {
	logger  *zap.Logger
	renames map[string]string
}

// NewSanitizer creates a sanitizer with the given set rename table.
// A nil table uses DefaultSetRenames.
func NewSanitizer(logger *zap.Logger, renames map[string]string) *Sanitizer {
	if renames == nil {
		renames = DefaultSetRenames
	}
	return &Sanitizer{logger: logger, renames: renames}
}

type correction struct {
	name string
	fn   func(b Blob, unlocks map[string]int) error
}

// SanitizeAll runs Sanitize over every blob and keeps the accepted ones.
func (s *Sanitizer) SanitizeAll(uid string, blobs []Blob, unlocks map[string]int) []Blob {
	out := make([]Blob, 0, len(blobs))
	for _, b := range blobs {
		if clean, ok := s.Sanitize(uid, b, unlocks); ok {
			out = append(out, clean)
		}
	}
	return out
}

// Sanitize applies every correction to b in place. Blobs without a role or a
// level are rejected. unlocks maps role id to the account-reported chain
// unlock count.
func (s *Sanitizer) Sanitize(uid string, b Blob, unlocks map[string]int) (Blob, bool) {
	if err := validate(b); err != nil {
		s.logger.Warn("Dropping malformed character blob",
			zap.String("uid", uid),
			zap.String("role_id", b.RoleID()),
			zap.Error(err),
		)
		return nil, false
	}

	corrections := []correction{
		{"zero_cost_guard", s.guardZeroCost},
		{"strip_effect_description", s.stripEffectDescription},
		{"chain_unlock", s.correctChains},
		{"set_rename", s.renameSets},
	}

	for _, c := range corrections {
		if err := runCorrection(c, b, unlocks); err != nil {
			s.logger.Warn("Sanitation step failed",
				zap.String("uid", uid),
				zap.String("role_id", b.RoleID()),
				zap.String("step", c.name),
				zap.Error(err),
			)
		}
	}

	return b, true
}

func runCorrection(c correction, b Blob, unlocks map[string]int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.fn(b, unlocks)
}

func validate(b Blob) error {
	if b == nil {
		return errMissingRole
	}
	if role, ok := b["role"].(map[string]any); !ok || role == nil {
		return errMissingRole
	}
	if b.RoleID() == "" {
		return errMissingRoleID
	}
	if level, ok := b["level"]; !ok || level == nil {
		return errMissingLevel
	}
	return nil
}

// guardZeroCost clears the equipment list when the total cost is zero.
func (s *Sanitizer) guardZeroCost(b Blob, _ map[string]int) error {
	phantom, ok := b["phantomData"].(map[string]any)
	if !ok {
		return nil
	}
	cost, ok := utils.ToFloat(phantom["cost"])
	if ok && cost == 0 {
		phantom["equipPhantomList"] = nil
	}
	return nil
}

// stripEffectDescription removes weaponData.weapon.effectDescription.
func (s *Sanitizer) stripEffectDescription(b Blob, _ map[string]int) error {
	weaponData, ok := b["weaponData"].(map[string]any)
	if !ok {
		return nil
	}
	weapon, ok := weaponData["weapon"].(map[string]any)
	if !ok {
		return nil
	}
	delete(weapon, "effectDescription")
	return nil
}

// correctChains marks chain entries unlocked when order <= unlock count.
func (s *Sanitizer) correctChains(b Blob, unlocks map[string]int) error {
	roleID := b.RoleID()
	count, ok := unlocks[roleID]
	if !ok {
		return fmt.Errorf("no chain unlock count for role %s", roleID)
	}

	chains, ok := b["chainList"].([]any)
	if !ok {
		return nil
	}
	for _, c := range chains {
		entry, ok := c.(map[string]any)
		if !ok {
			continue
		}
		order, ok := utils.ToInt(entry["order"])
		if !ok {
			return fmt.Errorf("chain entry without order")
		}
		entry["unlocked"] = order <= count
	}
	return nil
}

// renameSets rewrites legacy equipment-set names.
func (s *Sanitizer) renameSets(b Blob, _ map[string]int) error {
	phantom, ok := b["phantomData"].(map[string]any)
	if !ok {
		return nil
	}
	list, ok := phantom["equipPhantomList"].([]any)
	if !ok {
		return nil
	}
	for _, item := range list {
		equip, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fetter, ok := equip["fetterDetail"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := fetter["name"].(string)
		if renamed, found := s.renames[name]; found {
			fetter["name"] = renamed
		}
	}
	return nil
}
