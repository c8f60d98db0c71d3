package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
}

var DefaultArgon2id = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32}

// Argon2id genera PHC strings: $argon2id$v=19$m=...,t=...,p=...$<saltB64>$<dkB64>.
// El salt de la credencial es el segmento <saltB64>.
type Argon2id struct {
	Params Params
}

func (a Argon2id) Hash(plain string) (Credential, error) {
	if plain == "" {
		return Credential{}, fmt.Errorf("empty password")
	}
	p := a.Params
	if p.KeyLen == 0 {
		p = DefaultArgon2id
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return Credential{}, err
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	phc := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Time, p.Parallelism, saltB64,
		base64.RawStdEncoding.EncodeToString(dk),
	)
	return Credential{Hash: phc, Salt: saltB64}, nil
}

// parts: "", "argon2id", "v=19", "m=..,t=..,p=..", salt, dk
func verifyArgon2id(plain, phc, saltB64 string) bool {
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[2] != "v=19" || parts[4] != saltB64 {
		return false
	}
	var m, t, p uint64
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return false
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return false
		}
		switch k {
		case "m":
			m = n
		case "t":
			t = n
		case "p":
			p = n
		}
	}
	if m == 0 || t == 0 || p == 0 || p > 255 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	dkStored, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	key := argon2.IDKey([]byte(plain), salt, uint32(t), uint32(m), uint8(p), uint32(len(dkStored)))
	return subtle.ConstantTimeCompare(key, dkStored) == 1
}
