package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestDefaultPolicy(t *testing.T) {
	pol := Default()

	assert.Equal(t, 4, pol.TierPriorities[domain.SLATierGold])
	assert.Equal(t, 2, pol.TierPriorities[domain.SLATierSilver])
	assert.Equal(t, 1, pol.TierPriorities[domain.SLATierBronze])
	assert.Equal(t, 0, pol.TierPriorities[domain.SLATierNone])

	assert.True(t, pol.IsCriticalIssueType(domain.IssueTypeNetwork))
	assert.True(t, pol.IsCriticalIssueType(domain.IssueTypeAccess))
	assert.False(t, pol.IsCriticalIssueType(domain.IssueTypeSoftware))

	assert.True(t, pol.IsComplexIssueType(domain.IssueTypeHardware))
	assert.False(t, pol.IsComplexIssueType(domain.IssueTypeEmail))
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"route_access_to_l2": true,
		"fallback_default_priority": 2
	}`), 0o600))

	pol, err := Load(path)
	require.NoError(t, err)
	assert.True(t, pol.RouteAccessToL2)
	assert.Equal(t, 2, pol.FallbackDefaultPriority)
	// Untouched fields keep their defaults.
	assert.Equal(t, 4, pol.TierPriorities[domain.SLATierGold])
	assert.NotEmpty(t, pol.Keywords.Critical)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	pol, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), pol)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fallback_default_priority": 9}`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"tier_priorities": {"Platinum": 4}}`), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
