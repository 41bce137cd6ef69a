package api

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// passwordSymbols 密码必须包含的特殊字符集合（固定）
const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// ValidateUsername 校验用户名格式：3-20位，仅字母、数字、下划线
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return errors.New("用户名必须为3-20位，且只能包含字母、数字和下划线")
	}
	return nil
}

// ValidatePassword 校验密码强度：至少8位，含大写、小写、数字和特殊字符各一个
// 策略由调用方（接口层）执行，存储层只负责哈希比对。
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("密码长度至少8位")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return errors.New("密码必须包含至少一个大写字母")
	case !hasLower:
		return errors.New("密码必须包含至少一个小写字母")
	case !hasDigit:
		return errors.New("密码必须包含至少一个数字")
	case !hasSymbol:
		return errors.New("密码必须包含至少一个特殊字符")
	}
	return nil
}
