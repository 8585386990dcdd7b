package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigestResponse(t *testing.T) {
	// MD5(HA1:nonce:HA2) for the classic testrealm example, no qop.
	response := DigestResponse(
		"Mufasa", "testrealm@host.com", "Circle Of Life",
		"GET", "/dir/index.html",
		"dcd98b7102dd2f0e8b11d0f600bfb0c093")
	assert.Equal(t, "670fd8c2df070c60b045671b8b24ff02", response)
}

func TestDigestAuthorization(t *testing.T) {
	header := DigestAuthorization(
		"door", "sip.example.org", "secret",
		"REGISTER", "sip:sip.example.org", "abc123")

	assert.Contains(t, header, `Digest username="door"`)
	assert.Contains(t, header, `realm="sip.example.org"`)
	assert.Contains(t, header, `nonce="abc123"`)
	assert.Contains(t, header, `uri="sip:sip.example.org"`)
	assert.Contains(t, header, "algorithm=MD5")
	assert.Contains(t, header,
		`response="`+DigestResponse("door", "sip.example.org", "secret",
			"REGISTER", "sip:sip.example.org", "abc123")+`"`)
}
