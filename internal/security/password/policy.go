package password

import (
	"errors"
	"strings"
	"unicode"
)

// Violation es una regla de la política que la contraseña no cumple.
type Violation struct {
	Code        string `json:"errorCode"`
	Description string `json:"description"`
}

// Rule es una regla de la política. Pass devuelve true si la contraseña la cumple.
type Rule struct {
	Violation
	Pass func(s string) bool
}

var (
	// ErrWeakPassword: la contraseña viola una o más reglas. Usar errors.As con *PolicyError.
	ErrWeakPassword = errors.New("password does not satisfy policy")
)

// PolicyError lleva la lista ordenada de violaciones.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	codes := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		codes[i] = v.Code
	}
	return ErrWeakPassword.Error() + ": " + strings.Join(codes, ",")
}

func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

// Rules en el orden en que se reportan.
var Rules = []Rule{
	{
		Violation: Violation{Code: "pwd-no-lower", Description: "The password must contains at least one lowercase character."},
		Pass:      func(s string) bool { return strings.IndexFunc(s, isLowerASCII) >= 0 },
	},
	{
		Violation: Violation{Code: "pwd-no-upper", Description: "The password must contains at least one uppercase character."},
		Pass:      func(s string) bool { return strings.IndexFunc(s, isUpperASCII) >= 0 },
	},
	{
		Violation: Violation{Code: "pwd-no-number", Description: "The password must contains at least one number."},
		Pass:      func(s string) bool { return strings.IndexFunc(s, isDigitASCII) >= 0 },
	},
	{
		Violation: Violation{Code: "pwd-no-special", Description: "The password must contains at least one special character."},
		Pass:      func(s string) bool { return strings.IndexFunc(s, IsSpecial) >= 0 },
	},
	{
		Violation: Violation{Code: "pwd-length", Description: "The password must contains at least 8 characters."},
		Pass:      func(s string) bool { return len([]rune(s)) >= MinLength },
	},
	{
		Violation: Violation{Code: "pwd-whitespace", Description: "The password must not contains any whitespaces."},
		Pass:      func(s string) bool { return strings.IndexFunc(s, unicode.IsSpace) < 0 },
	},
}

// MinLength en caracteres (runes).
const MinLength = 8

// Evaluate corre todas las reglas (sin cortocircuito) y devuelve las violadas
// en el orden de Rules. Vacío significa aceptable.
func Evaluate(s string) []Violation {
	var out []Violation
	for _, r := range Rules {
		if !r.Pass(s) {
			out = append(out, r.Violation)
		}
	}
	return out
}

// Check es Evaluate como error: nil o *PolicyError.
func Check(s string) error {
	if v := Evaluate(s); len(v) > 0 {
		return &PolicyError{Violations: v}
	}
	return nil
}

// ViolationsOf extrae las violaciones de un error de Check (nil si no aplica).
func ViolationsOf(err error) []Violation {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe.Violations
	}
	return nil
}

func isLowerASCII(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigitASCII(r rune) bool { return r >= '0' && r <= '9' }

// IsSpecial: cualquier caracter fuera de [a-zA-Z0-9] que no sea espacio.
func IsSpecial(r rune) bool {
	return !isLowerASCII(r) && !isUpperASCII(r) && !isDigitASCII(r) && !unicode.IsSpace(r)
}
