package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/GregMSThompson/finance-dashboard/internal/jsondoc"
)

const (
	DefaultRelayURL         = "https://corsproxy.io/?"
	DefaultEnvelopeRelayURL = "https://api.allorigins.win/get?url="

	maxBodyBytes = 10 << 20
)

var errResponseTooLarge = fmt.Errorf("response too large (over %d bytes)", maxBodyBytes)

// Strategy is one way of retrieving a JSON document for a target URL.
type Strategy struct {
	Name       string
	requestURL func(target string) string
	unwrap     func(doc any) (any, error)
}

// Direct requests the target itself.
func Direct() Strategy {
	return Strategy{
		Name:       "direct",
		requestURL: func(target string) string { return target },
	}
}

// Relay requests the target through a relay that takes the percent-encoded
// target appended to its base URL.
func Relay(base string) Strategy {
	return Strategy{
		Name:       "relay",
		requestURL: func(target string) string { return base + url.QueryEscape(target) },
	}
}

// EnvelopeRelay requests the target through a relay that answers with
// {"contents": "<json text>"}.
func EnvelopeRelay(base string) Strategy {
	return Strategy{
		Name:       "envelope",
		requestURL: func(target string) string { return base + url.QueryEscape(target) },
		unwrap:     unwrapContents,
	}
}

// DefaultStrategies returns direct retrieval followed by the relays whose
// base URL is non-empty.
func DefaultStrategies(relayBase, envelopeBase string) []Strategy {
	out := []Strategy{Direct()}
	if relayBase != "" {
		out = append(out, Relay(relayBase))
	}
	if envelopeBase != "" {
		out = append(out, EnvelopeRelay(envelopeBase))
	}
	return out
}

func (s Strategy) retrieve(ctx context.Context, client *http.Client, target string) (any, error) {
	doc, err := getJSON(ctx, client, s.requestURL(target))
	if err != nil {
		return nil, err
	}
	if s.unwrap != nil {
		return s.unwrap(doc)
	}
	return doc, nil
}

func getJSON(ctx context.Context, client *http.Client, u string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, errResponseTooLarge
	}
	doc, err := jsondoc.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	return doc, nil
}

func unwrapContents(doc any) (any, error) {
	obj, ok := doc.(*jsondoc.Object)
	if !ok {
		return nil, errors.New("relay response is not an object")
	}
	v, _ := obj.Get("contents")
	contents, ok := v.(string)
	if !ok {
		return nil, errors.New("relay response has no contents")
	}
	inner, err := jsondoc.Decode([]byte(contents))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON in relay contents: %w", err)
	}
	return inner, nil
}
