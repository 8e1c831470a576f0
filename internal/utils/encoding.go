package utils

import "encoding/base64"

// EncodeBase64 encodes a string with standard base64 encoding.
func EncodeBase64(source string) string {
	return base64.StdEncoding.EncodeToString([]byte(source))
}

// DecodeBase64 decodes a standard base64 string back to plaintext.
func DecodeBase64(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
