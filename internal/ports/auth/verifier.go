package auth

import "context"

// AuthVerifier convierte un bearer token en Claims.
// Implementaciones: adapters/auth/jwt (HS256 local) y adapters/auth/remote
// (servicio de identidad). nil = modo dev.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
