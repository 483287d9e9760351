package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "accounts", Account{}.TableName())
	assert.Equal(t, "bindings", Binding{}.TableName())
	assert.Equal(t, "character_snapshots", CharacterSnapshot{}.TableName())
	assert.Equal(t, "character_hold_rates", CharacterHoldRate{}.TableName())
	assert.Len(t, All(), 4)
}

func TestAccount_Valid(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		want    bool
	}{
		{"Valid", Account{Credential: "tok"}, true},
		{"No Credential", Account{}, false},
		{"Invalidated", Account{Credential: "tok", Status: "expired"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.account.Valid())
		})
	}
}

func TestBinding_Lists(t *testing.T) {
	b := Binding{UID: "100_200__300", GroupID: "g1"}
	assert.Equal(t, []string{"100", "200", "300"}, b.UIDs())
	assert.Equal(t, []string{"g1"}, b.Groups())
	assert.Nil(t, Binding{}.UIDs())
}
