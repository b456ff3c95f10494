package guildconfig

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestParsePatchIgnoresUnknownFields(t *testing.T) {
	p := ParsePatch(decode(t, `{"foo":"bar","prefix":"$"}`))

	assert.Equal(t, map[string]any{ColPrefix: "$"}, p.Columns())
}

func TestParsePatchMinParticipants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int
	}{
		{"negative", `{"minParticipants":-1}`, nil},
		{"zero", `{"minParticipants":0}`, nil},
		{"string", `{"minParticipants":"abc"}`, nil},
		{"numeric string", `{"minParticipants":"7"}`, nil},
		{"fraction below one", `{"minParticipants":0.9}`, nil},
		{"null", `{"minParticipants":null}`, nil},
		{"integer", `{"minParticipants":8}`, intPtr(8)},
		{"truncated", `{"minParticipants":3.99}`, intPtr(3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := ParsePatch(decode(t, tc.input))
			assert.Equal(t, tc.want, p.MinParticipants)
		})
	}
}

func TestParseMinParticipantsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		p := ParsePatch(map[string]any{"minParticipants": f})
		assert.Nil(t, p.MinParticipants)
	}
	p := ParsePatch(map[string]any{"minParticipants": json.Number("12")})
	assert.Equal(t, intPtr(12), p.MinParticipants)
}

func TestParsePatchNormalizesText(t *testing.T) {
	p := ParsePatch(decode(t, `{
		"paymentText": "  pay via bank  ",
		"defaultCurrency": " usd ",
		"listingsChannelId": " 42 ",
		"prefix": "   ",
		"enabled": "yes",
		"isMainServer": true,
		"allowedRoleIds": [" 1 ", "", "2"]
	}`))

	require.NotNil(t, p.PaymentText)
	assert.Equal(t, "pay via bank", *p.PaymentText)
	require.NotNil(t, p.DefaultCurrency)
	assert.Equal(t, "USD", *p.DefaultCurrency)
	require.NotNil(t, p.ListingChannelID)
	assert.Equal(t, "42", *p.ListingChannelID)
	assert.Nil(t, p.Prefix, "blank prefix is rejected")
	assert.Nil(t, p.Enabled, "non-bool enabled is rejected")
	require.NotNil(t, p.IsMainServer)
	assert.True(t, *p.IsMainServer)
	require.NotNil(t, p.AllowedRoleIDs)
	assert.Equal(t, []string{"1", "2"}, *p.AllowedRoleIDs)
}

func TestParsePatchRejectsUnknownCurrency(t *testing.T) {
	p := ParsePatch(decode(t, `{"defaultCurrency":"ZZQ"}`))
	assert.Nil(t, p.DefaultCurrency)
	assert.True(t, p.Empty())
}

func TestParseSeedOnlyKeepsSeedFields(t *testing.T) {
	p := ParseSeed(map[string]any{"name": "Guild", "icon": "abc", "prefix": "?"})
	assert.Equal(t, map[string]any{ColName: "Guild", ColIcon: "abc"}, p.Columns())
}

func TestUpsertDocumentAndMerge(t *testing.T) {
	prefix := "$"
	u := Upsert{GuildID: "g1", OnInsert: Defaults("g1"), Set: Patch{Prefix: &prefix}, Customize: true}

	doc := u.Document()
	assert.Equal(t, "$", doc.Prefix)
	assert.True(t, doc.Customized)
	assert.Equal(t, DefaultMinParticipants, doc.MinParticipants)

	existing := Defaults("g1")
	existing.MinParticipants = 9
	merged := u.Merge(existing)
	assert.Equal(t, "$", merged.Prefix)
	assert.Equal(t, 9, merged.MinParticipants)

	noop := Upsert{GuildID: "g1", OnInsert: Defaults("g1")}
	assert.Equal(t, existing, noop.Merge(existing))
}

func TestNewViewFillsDefaults(t *testing.T) {
	v := NewView(Config{GuildID: "g1"})
	assert.Equal(t, DefaultPrefix, v.Prefix)
	assert.Equal(t, DefaultMinParticipants, v.MinParticipants)
	assert.Equal(t, DefaultCurrency, v.DefaultCurrency)
	assert.Equal(t, []string{}, v.AllowedRoleIDs)
	assert.True(t, v.IsDefault)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	for _, key := range []string{"guildId", "prefix", "enabled", "minParticipants", "defaultCurrency", "paymentText", "isDefault", "botInstalledAt"} {
		assert.Contains(t, m, key)
	}
}

// Whatever the input, an accepted minParticipants is a positive integer.
func TestProperty_MinParticipantsAlwaysPositive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := rapid.Float64().Draw(rt, "f")
		p := ParsePatch(map[string]any{"minParticipants": f})
		if p.MinParticipants == nil {
			return
		}
		if *p.MinParticipants < 1 || float64(*p.MinParticipants) != math.Trunc(f) {
			rt.Fatalf("input %v produced %d", f, *p.MinParticipants)
		}
	})
}

func intPtr(n int) *int { return &n }
