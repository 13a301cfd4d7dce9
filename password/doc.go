// Package password provides the default argon2id credential verifier in
// PHC string format. The gateway consumes it through the PasswordVerifier
// interface, so deployments that hash elsewhere can swap it out.
package password
