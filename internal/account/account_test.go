// ABOUTME: Tests for the account data model
// ABOUTME: Covers validity, ordering, signatures and server info comparison

package account

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	a := Account{ServerURL: "https://drive.example.com", Username: "alice@example.com"}
	assert.False(t, a.Valid())

	a.Token = "secret"
	assert.True(t, a.Valid())
}

func TestSignature(t *testing.T) {
	a := Account{
		ServerURL: "https://drive.example.com",
		Username:  "alice@example.com",
	}
	assert.Equal(t, "drive.example.com_alice", a.Signature())

	// Username without a domain part is used as-is.
	b := Account{ServerURL: "https://drive.example.com", Username: "bob"}
	assert.Equal(t, "drive.example.com_bob", b.Signature())
}

func TestLess_ValidityDominant(t *testing.T) {
	valid := Account{ServerURL: "https://s1", Username: "a", Token: "t", LastVisited: 100}
	invalid := Account{ServerURL: "https://s2", Username: "b", LastVisited: 200}

	// A valid account sorts before an invalid one even when visited earlier.
	assert.True(t, Less(valid, invalid))
	assert.False(t, Less(invalid, valid))
}

func TestLess_LastVisitedWithinGroup(t *testing.T) {
	older := Account{ServerURL: "https://s1", Username: "a", Token: "t", LastVisited: 100}
	newer := Account{ServerURL: "https://s2", Username: "b", Token: "t", LastVisited: 200}

	assert.True(t, Less(newer, older))
	assert.False(t, Less(older, newer))
}

func TestLess_SortOrder(t *testing.T) {
	accounts := []Account{
		{ServerURL: "https://s1", Username: "a", LastVisited: 500},            // invalid
		{ServerURL: "https://s2", Username: "b", Token: "t", LastVisited: 10}, // valid, old
		{ServerURL: "https://s3", Username: "c", Token: "t", LastVisited: 99}, // valid, recent
		{ServerURL: "https://s4", Username: "d", LastVisited: 1},              // invalid
	}

	slices.SortStableFunc(accounts, func(a, b Account) int {
		switch {
		case Less(a, b):
			return -1
		case Less(b, a):
			return 1
		default:
			return 0
		}
	})

	got := make([]string, 0, len(accounts))
	for _, a := range accounts {
		got = append(got, a.Username)
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, got)
}

func TestServerInfoEqual(t *testing.T) {
	a := ServerInfo{Version: "11.0.3", Features: []string{"file-search", "pro"}}
	b := ServerInfo{Version: "11.0.3", Features: []string{"file-search", "pro"}}
	assert.True(t, a.Equal(b))

	b.CustomBrand = "Acme Drive"
	assert.False(t, a.Equal(b))

	c := ServerInfo{Version: "11.0.3", Features: []string{"pro", "file-search"}}
	assert.False(t, a.Equal(c), "feature order is part of the persisted form")
}

func TestServerInfoFeatures(t *testing.T) {
	info := ServerInfo{Features: []string{"file-search", "pro", "office-preview"}}
	assert.True(t, info.HasFeature("pro"))
	assert.True(t, info.ProEdition())
	assert.False(t, info.HasFeature("search"))
	assert.Equal(t, "file-search,pro,office-preview", info.FeatureString())

	assert.Equal(t, []string{"file-search", "pro"}, ParseFeatures("file-search,pro"))
	assert.Nil(t, ParseFeatures(""))

	assert.False(t, ServerInfo{}.ProEdition())
}

func TestIdentity(t *testing.T) {
	a := Account{ServerURL: "https://s1", Username: "alice"}
	assert.Equal(t, Identity{ServerURL: "https://s1", Username: "alice"}, a.Identity())
	assert.True(t, a.Is(Identity{ServerURL: "https://s1", Username: "alice"}))
	assert.False(t, a.Is(Identity{ServerURL: "https://s1", Username: "bob"}))
}
