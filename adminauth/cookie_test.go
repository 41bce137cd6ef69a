package adminauth

import (
	"testing"

	"expensetracker/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initCookieTestConfig(jwtSecret string) {
	config.GlobalConfig = &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: jwtSecret},
	}
}

func TestSignCookieValue(t *testing.T) {
	initCookieTestConfig("test-secret")
	defer func() { config.GlobalConfig = nil }()

	// 相同输入得到相同签名
	signed1 := SignCookieValue("123")
	signed2 := SignCookieValue("123")
	assert.Equal(t, signed1, signed2)
	assert.Contains(t, signed1, ".")
	assert.Equal(t, "123", signed1[:3])

	// 空 secret 使用默认值
	initCookieTestConfig("")
	signed := SignCookieValue("abc")
	assert.NotEmpty(t, signed)
	assert.Contains(t, signed, ".")
	assert.True(t, len(signed) > len("abc")+1)
}

func TestVerifyCookieValue(t *testing.T) {
	initCookieTestConfig("test-secret")
	defer func() { config.GlobalConfig = nil }()

	// 合法签名返回 value
	signed := SignCookieValue("user123")
	value, err := VerifyCookieValue(signed)
	require.NoError(t, err)
	assert.Equal(t, "user123", value)

	// 空值返回错误
	_, err = VerifyCookieValue("")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")

	// 格式错误（无点号）返回错误
	_, err = VerifyCookieValue("novalue")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")

	// 格式错误（点号在开头）返回错误
	_, err = VerifyCookieValue(".sigonly")
	assert.Error(t, err)

	// 篡改 value 后签名无效
	tampered := "hacker.0000000000000000000000000000000000000000000000000000000000000000"
	_, err = VerifyCookieValue(tampered)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "signature")

	// 不同 secret 下签名不可通过
	signedOld := SignCookieValue("42")
	initCookieTestConfig("another-secret")
	_, err = VerifyCookieValue(signedOld)
	assert.Error(t, err)
}
