// Package naming derives database names, instance identifiers, and master
// credentials from client and service slugs. Derivation is deterministic so
// re-provisioning the same (client, service) pair yields the same identifiers;
// only the master password is random.
package naming

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

const (
	// AWS RDS limits.
	maxIdentifierLength = 63
	maxUsernameLength   = 16

	passwordLength   = 32
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!#$%&*+-=?_"
)

// Usernames RDS rejects outright or that shadow engine superusers.
var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"administrator": {},
	"root":          {},
	"postgres":      {},
	"rdsadmin":      {},
	"rds_superuser": {},
	"mysql":         {},
	"sys":           {},
	"public":        {},
}

var usernamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DatabaseName returns the logical database name for a client/service pair.
// Pass an empty serviceSlug for a service-less database.
func DatabaseName(clientSlug, serviceSlug string) string {
	c := Slugify(clientSlug, '_')
	if serviceSlug == "" {
		return fmt.Sprintf("client_%s_db", c)
	}
	return fmt.Sprintf("client_%s_%s_db", c, Slugify(serviceSlug, '_'))
}

// InstanceIdentifier returns the provider instance identifier, lowercased and
// truncated to the provider's 63 character limit. Truncation is deliberate
// policy: similarly-prefixed slugs can collide, and the unique index on the
// record store surfaces that to the caller.
func InstanceIdentifier(environment, clientSlug, serviceSlug string) string {
	parts := []string{Slugify(environment, '-'), Slugify(clientSlug, '-')}
	if serviceSlug != "" {
		parts = append(parts, Slugify(serviceSlug, '-'))
	}
	identifier := strings.ToLower(strings.Join(parts, "-"))
	if len(identifier) > maxIdentifierLength {
		identifier = identifier[:maxIdentifierLength]
	}
	return identifier
}

// Username returns the master username, truncated to the provider's 16
// character limit. It rejects reserved names and anything that would not
// survive the provider's "letter first, then letters/digits/underscores"
// rule rather than submitting a username the provider will bounce.
func Username(clientSlug, serviceSlug string) (string, error) {
	c := Slugify(clientSlug, '_')
	var username string
	if serviceSlug == "" {
		username = fmt.Sprintf("%s_user", c)
	} else {
		username = fmt.Sprintf("%s_%s_user", c, Slugify(serviceSlug, '_'))
	}
	username = strings.ToLower(username)
	if len(username) > maxUsernameLength {
		username = username[:maxUsernameLength]
	}
	username = strings.TrimRight(username, "_")

	if _, ok := reservedUsernames[username]; ok {
		return "", fmt.Errorf("generated username %q is reserved", username)
	}
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("generated username %q is not a valid master username", username)
	}
	return username, nil
}

// Password returns a 32 character master password from crypto/rand. Never
// deterministic.
func Password() string {
	b := make([]byte, passwordLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = passwordAlphabet[int(b[i])%len(passwordAlphabet)]
	}
	return string(b)
}

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single separator, trimming separators from both ends.
func Slugify(s string, sep byte) string {
	var sb strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastSep = false
		default:
			if !lastSep {
				sb.WriteByte(sep)
				lastSep = true
			}
		}
	}
	return strings.TrimRight(sb.String(), string(sep))
}

// SnapshotIdentifier derives the final snapshot name for a deletion, suffixed
// with a timestamp so repeated deletions stay distinguishable. The timestamp
// is supplied by the caller to keep this function pure.
func SnapshotIdentifier(instanceIdentifier, timestamp string) string {
	return fmt.Sprintf("%s-final-%s", instanceIdentifier, timestamp)
}
