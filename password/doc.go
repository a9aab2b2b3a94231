// Package password implements the portal's password hasher on Argon2id.
//
// # Output format
//
// Digests are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Parameters are read back from the digest on verification, so raising the
// cost in [Config] never invalidates stored digests. [Argon2.NeedsUpgrade]
// reports digests produced with weaker parameters.
//
// # What this package must NOT do
//
//   - Store or retrieve digests; callers own persistence.
//   - Log plaintext passwords.
//   - Import any other portalAuth package.
package password
