package gateway

import (
	"log/slog"
	"net/url"
	"strings"
)

const redacted = "[redacted]"

// Credential is the backend API key. It only leaves this type through
// AppendTo; formatting and logging print a placeholder.
type Credential struct {
	key string
}

func NewCredential(key string) Credential { return Credential{key: key} }

func (c Credential) String() string { return redacted }
func (c Credential) GoString() string { return redacted }
func (c Credential) LogValue() slog.Value { return slog.StringValue(redacted) }
func (c Credential) Empty() bool { return c.key == "" }

// AppendTo returns uri with the key added as the "key" query parameter so the
// media can be fetched without further authentication. Without a key uri is
// returned unchanged.
func (c Credential) AppendTo(uri string) string {
	if c.Empty() {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(c.key)
}
