// Package upstream is the HTTP client for the game-data API.
//
// FetchRoleList returns an account's roster and FetchCharacter returns one
// character's raw detail blob. Non-success responses become *Failure values;
// the configured invalid-credential code unwraps to ErrCredentialInvalid.
// The client performs no retries.
package upstream
