// Package machineid derives a stable identifier for the executing machine.
//
// The identifier is used exclusively as key-derivation input for the local
// secrets cache and is never transmitted. It offers no protection against
// an attacker with access to the same machine and user account, since the
// same sources are readable by them.
package machineid
