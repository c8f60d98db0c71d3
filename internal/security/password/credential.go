package password

import (
	"errors"
	"strings"
)

// ErrCredentialMismatch no distingue entre hash ausente, salt incorrecto o contraseña incorrecta.
var ErrCredentialMismatch = errors.New("invalid-password")

// MaxBytes es el largo máximo que acepta bcrypt.
const MaxBytes = 72

// ErrPasswordTooLong: la contraseña cumple la política pero no se puede hashear.
var ErrPasswordTooLong = errors.New("password must not exceed 72 bytes")

// CheckLength rechaza contraseñas de más de MaxBytes bytes. Se llama antes de
// tocar el provider para no dejar cuentas a medio crear.
func CheckLength(plain string) error {
	if len(plain) > MaxBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Credential es el par hash/salt que se guarda en el mirror.
type Credential struct {
	Hash string
	Salt string
}

// Hasher genera credenciales nuevas con salt aleatorio.
type Hasher interface {
	Hash(plain string) (Credential, error)
}

// DefaultHasher es bcrypt cost 10, el mismo esquema que usa el provider.
var DefaultHasher Hasher = Bcrypt{Cost: DefaultBcryptCost}

// HashPassword genera una credencial con DefaultHasher.
func HashPassword(plain string) (Credential, error) {
	return DefaultHasher.Hash(plain)
}

// Validate compara plain contra la credencial guardada. El esquema se detecta
// por el prefijo del hash. Cualquier fallo devuelve ErrCredentialMismatch.
func Validate(plain, storedHash, storedSalt string) error {
	if storedHash == "" || storedSalt == "" {
		return ErrCredentialMismatch
	}
	var ok bool
	switch {
	case strings.HasPrefix(storedHash, argon2idPrefix):
		ok = verifyArgon2id(plain, storedHash, storedSalt)
	case strings.HasPrefix(storedHash, "$2"):
		ok = verifyBcrypt(plain, storedHash, storedSalt)
	}
	if !ok {
		return ErrCredentialMismatch
	}
	return nil
}

// ValidatePtr es Validate sobre los campos opcionales del mirror.
func ValidatePtr(plain string, storedHash, storedSalt *string) error {
	if storedHash == nil || storedSalt == nil {
		return ErrCredentialMismatch
	}
	return Validate(plain, *storedHash, *storedSalt)
}
