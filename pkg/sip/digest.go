package sip

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// DigestResponse computes the RFC 2617 MD5 digest response for a
// challenge without qop.
func DigestResponse(user, realm, password, method, uri, nonce string) string {
	ha1 := md5Hex(user + ":" + realm + ":" + password)
	ha2 := md5Hex(method + ":" + uri)
	return md5Hex(ha1 + ":" + nonce + ":" + ha2)
}

// DigestAuthorization builds the Authorization header value for a
// digest challenge.
func DigestAuthorization(user, realm, password, method, uri, nonce string) string {
	response := DigestResponse(user, realm, password, method, uri, nonce)
	return fmt.Sprintf(
		`Digest username="%s", realm="%s", nonce="%s", uri="%s", response="%s", algorithm=MD5`,
		user, realm, nonce, uri, response)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
