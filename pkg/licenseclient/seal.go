package licenseclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// sealedLicense is the on-disk form of the cache. The signature is an HMAC over the
// license keyed by the hashed machine id, so a record edited by hand or copied from
// another machine no longer verifies.
type sealedLicense struct {
	License   CachedLicense `json:"license"`
	Signature string        `json:"signature"`
}

func seal(license CachedLicense, machineHash string) (sealedLicense, error) {
	sig, err := signLicense(license, machineHash)
	if err != nil {
		return sealedLicense{}, err
	}
	return sealedLicense{License: license, Signature: sig}, nil
}

func (s sealedLicense) verify(machineHash string) bool {
	want, err := signLicense(s.License, machineHash)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(s.Signature)
	if err != nil {
		return false
	}
	expected, _ := hex.DecodeString(want)
	return hmac.Equal(got, expected)
}

func signLicense(license CachedLicense, machineHash string) (string, error) {
	payload, err := json.Marshal(license)
	if err != nil {
		return "", fmt.Errorf("encoding license: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(machineHash))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
