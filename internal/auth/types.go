package auth

import "github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/core"

// Result is an alias for core.AuthResult.
type Result = core.AuthResult
