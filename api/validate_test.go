package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "sana", "harsi_123", "ABC_def_99", "12345678901234567890"}
	for _, username := range valid {
		assert.NoError(t, ValidateUsername(username), username)
	}

	invalid := []string{
		"",
		"ab",
		"123456789012345678901",
		"with space",
		"with-dash",
		"中文名",
		"user@name",
	}
	for _, username := range invalid {
		assert.Error(t, ValidateUsername(username), username)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Password@123"))
	assert.NoError(t, ValidatePassword(`Aa1!aaaa`))

	tests := []struct {
		password string
		wantMsg  string
	}{
		{"Aa1!", "密码长度至少8位"},
		{"password@123", "大写字母"},
		{"PASSWORD@123", "小写字母"},
		{"Password@abc", "数字"},
		{"Password1234", "特殊字符"},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		assert.Error(t, err, tt.password)
		assert.Contains(t, err.Error(), tt.wantMsg)
	}
}
