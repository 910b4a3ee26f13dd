package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// CookieName：会话 Cookie 名
const CookieName = "heatmap_session"

// signer：Cookie 值为 "<会话ID>.<HMAC-SHA256(会话ID) 的 base64url>"
type signer struct {
	key []byte
}

func (s signer) mac(id string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (s signer) sign(id string) string {
	return id + "." + s.mac(id)
}

// verify：返回会话 ID；签名不符或格式错误时 ok=false
func (s signer) verify(v string) (string, bool) {
	i := strings.LastIndexByte(v, '.')
	if i <= 0 || i == len(v)-1 {
		return "", false
	}
	id, sig := v[:i], v[i+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(id))) {
		return "", false
	}
	return id, true
}
