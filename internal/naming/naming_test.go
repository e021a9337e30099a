package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "client_acme_billing_db", DatabaseName("acme", "billing"))
	assert.Equal(t, "client_acme_db", DatabaseName("acme", ""))
	assert.Equal(t, "client_big_corp_crm_v2_db", DatabaseName("Big Corp", "crm-v2"))
}

func TestInstanceIdentifier(t *testing.T) {
	assert.Equal(t, "prod-acme-billing", InstanceIdentifier("prod", "acme", "billing"))
	assert.Equal(t, "prod-acme", InstanceIdentifier("prod", "acme", ""))
}

func TestInstanceIdentifier_TruncatesTo63(t *testing.T) {
	long := strings.Repeat("a", 80)
	id := InstanceIdentifier("prod", long, "billing")
	assert.Len(t, id, 63)
	assert.True(t, strings.HasPrefix(id, "prod-aaaa"))
}

func TestInstanceIdentifier_CharsetIsProviderSafe(t *testing.T) {
	for _, tc := range []struct{ env, client, service string }{
		{"prod", "acme", "billing"},
		{"Staging", "Big Corp!", "CRM v2"},
		{"dev", "client_with_underscores", ""},
	} {
		id := InstanceIdentifier(tc.env, tc.client, tc.service)
		assert.LessOrEqual(t, len(id), 63)
		assert.Equal(t, strings.ToLower(id), id)
		assert.Regexp(t, `^[a-z0-9-]+$`, id)
	}
}

func TestUsername(t *testing.T) {
	u, err := Username("acme", "")
	require.NoError(t, err)
	assert.Equal(t, "acme_user", u)
}

func TestUsername_TruncatesTo16(t *testing.T) {
	// acme_billing_user is 17 characters; the provider limit cuts the
	// trailing "r". Truncation, not rejection, is the policy.
	u, err := Username("acme", "billing")
	require.NoError(t, err)
	assert.Equal(t, "acme_billing_use", u)
	assert.LessOrEqual(t, len(u), 16)
}

func TestUsername_NeverReserved(t *testing.T) {
	// The _user suffix keeps generated names out of the reserved set even
	// when the slug itself is a reserved word.
	for _, slug := range []string{"admin", "root", "postgres", "rds_superuser", "mysql"} {
		u, err := Username(slug, "")
		require.NoError(t, err, slug)
		_, reserved := reservedUsernames[u]
		assert.False(t, reserved, u)
	}
}

func TestUsername_MustStartWithLetter(t *testing.T) {
	_, err := Username("1acme", "")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	p1 := Password()
	p2 := Password()
	assert.Len(t, p1, 32)
	assert.Len(t, p2, 32)
	assert.NotEqual(t, p1, p2)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "big_corp", Slugify("Big Corp", '_'))
	assert.Equal(t, "crm-v2", Slugify("CRM v2", '-'))
	assert.Equal(t, "acme", Slugify("--acme--", '-'))
}

func TestSnapshotIdentifier(t *testing.T) {
	assert.Equal(t, "prod-acme-billing-final-20250507192018",
		SnapshotIdentifier("prod-acme-billing", "20250507192018"))
}
