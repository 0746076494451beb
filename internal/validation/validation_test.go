package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Regis", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", string(make([]byte, 101)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "regis@example.com", false},
		{"empty", "", true},
		{"no at sign", "regis.example.com", true},
		{"no domain", "regis@", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAge(t *testing.T) {
	assert.NoError(t, Age(0))
	assert.NoError(t, Age(34))
	assert.Error(t, Age(-1))
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "MyPass777!", false},
		{"too short", "abc123", true},
		{"exactly seven", "abcd123", false},
		{"contains password", "superpassword1", true},
		{"contains Password mixed case", "myPassWord99", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskDescription(t *testing.T) {
	assert.NoError(t, TaskDescription("buy milk"))
	assert.Error(t, TaskDescription(""))
	assert.Error(t, TaskDescription("   "))
}
