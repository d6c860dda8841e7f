package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(s string) *string { return &s }

func TestQualifiesMoneyMoney(t *testing.T) {
	assert.True(t, Qualifies(msg("Fix the parser"), MoneyMoney))
	assert.False(t, Qualifies(msg("Typo FREEBIE"), MoneyMoney))
	assert.False(t, Qualifies(msg("Merge branch 'dev'"), MoneyMoney))
	assert.False(t, Qualifies(nil, MoneyMoney))
	assert.True(t, Qualifies(msg(""), MoneyMoney))
}

func TestQualifiesFreebie(t *testing.T) {
	assert.False(t, Qualifies(msg("Fix the parser"), Freebie))
	assert.True(t, Qualifies(msg("Big feature MONEYMONEY"), Freebie))
	assert.False(t, Qualifies(msg("Merge MONEYMONEY"), Freebie))
	assert.False(t, Qualifies(nil, Freebie))
}

func TestQualifiesIsCaseSensitive(t *testing.T) {
	assert.True(t, Qualifies(msg("typo freebie"), MoneyMoney))
	assert.False(t, Qualifies(msg("please moneymoney"), Freebie))
	assert.True(t, Qualifies(msg("merge later"), MoneyMoney))
}

func TestLookupIgnoresCase(t *testing.T) {
	p, err := New([]RepositoryConfig{
		{URL: "https://github.com/Acme/Widget"},
		{URL: "https://github.com/acme/gadget", Mode: "freebie"},
	})
	require.NoError(t, err)

	mode, ok := p.Lookup("https://github.com/acme/widget")
	require.True(t, ok)
	assert.Equal(t, MoneyMoney, mode)

	mode, ok = p.Lookup("HTTPS://GITHUB.COM/ACME/GADGET")
	require.True(t, ok)
	assert.Equal(t, Freebie, mode)

	_, ok = p.Lookup("https://github.com/acme/unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"https://github.com/Acme/Widget", "https://github.com/acme/gadget"}, p.URLs())
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New([]RepositoryConfig{{URL: "https://github.com/a/b", Mode: "SOMETIMES"}})
	require.ErrorIs(t, err, ErrUnknownMode)

	_, err = New([]RepositoryConfig{{URL: "  "}})
	require.Error(t, err)
}

func TestNilPolicy(t *testing.T) {
	var p *Policy
	_, ok := p.Lookup("https://github.com/a/b")
	assert.False(t, ok)
	assert.Nil(t, p.URLs())
}

func TestLoadCombinesSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "repositories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
repositories:
  - url: https://github.com/acme/widget
  - url: https://github.com/acme/gadget
    mode: FREEBIE
`), 0o600))

	p, err := Load(`[{"url":"https://github.com/acme/tool","mode":"MONEYMONEY"}]`, path)
	require.NoError(t, err)

	assert.Len(t, p.URLs(), 3)
	mode, ok := p.Lookup("https://github.com/acme/gadget")
	require.True(t, ok)
	assert.Equal(t, Freebie, mode)
}

func TestLoadBadJSON(t *testing.T) {
	_, err := Load(`{not json`, "")
	require.Error(t, err)
}
