// ABOUTME: Account data model for driftsync server accounts
// ABOUTME: Defines Account, ServerInfo, AccountInfo, AuthMode and the registry ordering rule

package account

import (
	"net/url"
	"slices"
	"strings"
)

// AuthMode selects the interactive credential flow used to (re)authenticate
// an account. The modes are mutually exclusive.
type AuthMode int

const (
	AuthPassword AuthMode = iota
	AuthShibboleth
	AuthKerberos
)

func (m AuthMode) String() string {
	switch m {
	case AuthShibboleth:
		return "shibboleth"
	case AuthKerberos:
		return "kerberos"
	default:
		return "password"
	}
}

// Identity is the (server URL, username) pair that uniquely keys an account.
// The URL is held in its encoded form, exactly as persisted.
type Identity struct {
	ServerURL string
	Username  string
}

// ServerInfo holds a server's capability metadata as reported by the last
// successful capability sync.
type ServerInfo struct {
	Version     string
	Features    []string
	CustomBrand string
	CustomLogo  string
}

// HasFeature reports whether the server advertises the named feature flag.
func (s ServerInfo) HasFeature(name string) bool {
	return slices.Contains(s.Features, name)
}

// ProEdition reports whether the server runs a pro edition.
func (s ServerInfo) ProEdition() bool {
	return s.HasFeature("pro")
}

// Equal reports whether two ServerInfo values carry the same metadata.
// Feature order is significant: the store persists the joined list verbatim.
func (s ServerInfo) Equal(other ServerInfo) bool {
	return s.Version == other.Version &&
		s.CustomBrand == other.CustomBrand &&
		s.CustomLogo == other.CustomLogo &&
		slices.Equal(s.Features, other.Features)
}

// FeatureString returns the comma-joined feature list in persisted form.
func (s ServerInfo) FeatureString() string {
	return strings.Join(s.Features, ",")
}

// ParseFeatures splits a persisted comma-joined feature list.
func ParseFeatures(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

// AccountInfo holds per-user quota and display metadata.
type AccountInfo struct {
	TotalStorage int64
	UsedStorage  int64
	Name         string
}

// Account represents a remote-server account known to this client.
type Account struct {
	ServerURL   string // absolute URL, encoded form
	Username    string
	Token       string // empty means unauthenticated
	LastVisited int64  // ms since epoch
	AuthMode    AuthMode
	AutoLogin   bool
	ServerInfo  ServerInfo
	AccountInfo AccountInfo
}

// Valid reports whether the account holds a usable credential.
func (a Account) Valid() bool {
	return a.Token != ""
}

// Identity returns the account's unique key.
func (a Account) Identity() Identity {
	return Identity{ServerURL: a.ServerURL, Username: a.Username}
}

// Is reports whether the account has the given identity.
func (a Account) Is(id Identity) bool {
	return a.ServerURL == id.ServerURL && a.Username == id.Username
}

// Host returns the host component of the server URL, or "" when the URL
// does not parse.
func (a Account) Host() string {
	u, err := url.Parse(a.ServerURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Signature returns a stable per-account string derived from the identity,
// used for cross-process references (e.g. daemon mount labels). The form is
// "<host>_<username local part>".
func (a Account) Signature() string {
	user := a.Username
	if i := strings.IndexByte(user, '@'); i > 0 {
		user = user[:i]
	}
	return a.Host() + "_" + user
}

// Less is the registry ordering rule: valid accounts sort before invalid
// ones, and within each group more recently visited accounts sort first.
// The first account in this order is the current account.
func Less(a, b Account) bool {
	if a.Valid() != b.Valid() {
		return a.Valid()
	}
	return a.LastVisited > b.LastVisited
}
