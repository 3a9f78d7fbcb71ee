package fetcher

import (
	"net/url"
	"strings"
)

// Proxy is one CORS relay. Template contains {url}, which is replaced by the
// query-escaped target URL.
type Proxy struct {
	Name     string
	Template string

	// Envelope marks relays that wrap the page as {"contents": "..."}.
	Envelope bool
}

// DefaultProxies is the fallback order used when no list is configured.
var DefaultProxies = []Proxy{
	{Name: "allorigins-get", Template: "https://api.allorigins.win/get?url={url}", Envelope: true},
	{Name: "allorigins-raw", Template: "https://api.allorigins.win/raw?url={url}"},
	{Name: "corsproxy", Template: "https://corsproxy.io/?url={url}"},
	{Name: "codetabs", Template: "https://api.codetabs.com/v1/proxy?quest={url}"},
	{Name: "thingproxy", Template: "https://thingproxy.freeboard.io/fetch/{url}"},
}

// RequestURL builds the relay URL for target.
func (p Proxy) RequestURL(target string) string {
	return strings.ReplaceAll(p.Template, "{url}", url.QueryEscape(target))
}

// ParseProxies reads proxy specs of the form "name|template" or
// "name|template|envelope". Blank specs are skipped.
func ParseProxies(specs []string) []Proxy {
	var out []Proxy
	for _, spec := range specs {
		parts := strings.Split(strings.TrimSpace(spec), "|")
		if len(parts) < 2 || parts[1] == "" {
			continue
		}
		p := Proxy{Name: parts[0], Template: parts[1]}
		if len(parts) > 2 && parts[2] == "envelope" {
			p.Envelope = true
		}
		out = append(out, p)
	}
	return out
}
