// Package password encodes and matches passwords. The credential workflows
// treat it as an opaque one-way capability behind [Encoder].
//
// # Encodings
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>   (Argon2)
//	$2a$<cost>$<salt+hash>                                          (Bcrypt)
//
// [Chain] encodes with one algorithm and matches any registered one, so hashes
// imported from a bcrypt-based store keep working and can be re-encoded on the
// next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other credflow package.
//   - Log plaintext passwords.
package password
