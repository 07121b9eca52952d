package nfe

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"

	"github.com/ucarion/c14n"
)

// Digest SHA-256 (hex) del XML canónico (C14N). Dos copias del mismo documento con
// distinto formateo de atributos o declaración producen la misma huella. Si la
// canonicalización falla se usa el hash de los bytes originales.
func Digest(data []byte) string {
	canon, err := canonicalizeXML(data)
	if err != nil {
		canon = data
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:])
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	dec.CharsetReader = charsetReader
	return c14n.Canonicalize(dec)
}
