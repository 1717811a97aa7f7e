package fetch

import (
	"net/url"
	"strings"
)

// Provider describes how a finance API expects its credential.
type Provider struct {
	Name   string
	Domain string
	Param  string
	Key    string
}

const (
	ProviderFinnhub      = "finnhub"
	ProviderAlphaVantage = "alphavantage"
	ProviderTwelveData   = "twelvedata"
)

// DefaultProviders returns the providers the dashboard knows how to decorate.
// keys maps provider name to credential; providers without a key are left undecorated.
func DefaultProviders(keys map[string]string) []Provider {
	return []Provider{
		{Name: ProviderFinnhub, Domain: "finnhub.io", Param: "token", Key: keys[ProviderFinnhub]},
		{Name: ProviderAlphaVantage, Domain: "alphavantage.co", Param: "apikey", Key: keys[ProviderAlphaVantage]},
		{Name: ProviderTwelveData, Domain: "twelvedata.com", Param: "apikey", Key: keys[ProviderTwelveData]},
	}
}

// Decorate trims rawURL and, when it targets a known provider and does not
// already carry the provider's credential parameter, appends it.
func Decorate(rawURL string, providers []Provider) string {
	u := strings.TrimSpace(rawURL)
	for _, p := range providers {
		if !targets(u, p.Domain) {
			continue
		}
		if p.Key == "" || hasParam(u, p.Param) {
			return u
		}
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		return u + sep + p.Param + "=" + url.QueryEscape(p.Key)
	}
	return u
}

func targets(u, domain string) bool {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return strings.Contains(u, domain)
	}
	host := strings.ToLower(parsed.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func hasParam(u, param string) bool {
	parsed, err := url.Parse(u)
	if err != nil {
		return strings.Contains(u, param+"=")
	}
	return parsed.Query().Has(param)
}

// redact strips credential parameters so a URL can be logged.
func redact(u string, providers []Provider) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.RawQuery == "" {
		return u
	}
	q := parsed.Query()
	changed := false
	for _, p := range providers {
		if q.Has(p.Param) {
			q.Set(p.Param, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return u
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
