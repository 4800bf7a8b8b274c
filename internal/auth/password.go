package auth

import (
	"github.com/alexedwards/argon2id"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id com salt aleatório (parâmetros embutidos no hash).
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash armazenado em tempo constante.
// Hash malformado resulta em falha de verificação, nunca em panic.
func Verify(password, encodedHash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	if err != nil {
		return false
	}
	return ok
}
