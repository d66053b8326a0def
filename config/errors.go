package config

import "errors"

// ErrMissingJWTSecret is returned when JWT_SECRET is absent; the server
// refuses to boot with a guessable signing key.
var ErrMissingJWTSecret = errors.New("config: JWT_SECRET must be set")
