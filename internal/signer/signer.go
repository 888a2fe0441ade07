// Package signer computes OAuth 1.0a HMAC-SHA1 signatures for outbound platform requests.
//
// Sign is a pure function of its inputs. Signer wraps consumer credentials and supplies a
// fresh timestamp and nonce per request.
package signer

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/google/uuid"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

const (
	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"
)

// Params are the inputs of one signature.
type Params struct {
	Method         string
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	TokenSecret    string
	Timestamp      int64
	Nonce          string
}

func (p Params) oauthParams() map[string]string {
	return map[string]string{
		"oauth_consumer_key":     p.ConsumerKey,
		"oauth_nonce":            p.Nonce,
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        strconv.FormatInt(p.Timestamp, 10),
		"oauth_token":            p.AccessToken,
		"oauth_version":          oauthVersion,
	}
}

// Sign returns the base64 HMAC-SHA1 signature for p.
func Sign(p Params) (string, error) {
	return sign(p, defaultMAC)
}

// BaseString builds the canonical signature base string:
// METHOD&enc(base url)&enc(sorted parameters).
func BaseString(p Params) (string, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return "", fmt.Errorf("signer: parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("signer: url %q is not absolute", p.URL)
	}

	type pair struct{ key, value string }
	var pairs []pair
	for key, values := range u.Query() {
		for _, value := range values {
			pairs = append(pairs, pair{oauth1.PercentEncode(key), oauth1.PercentEncode(value)})
		}
	}
	for key, value := range p.oauthParams() {
		pairs = append(pairs, pair{oauth1.PercentEncode(key), oauth1.PercentEncode(value)})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key == pairs[j].key {
			return pairs[i].value < pairs[j].value
		}
		return pairs[i].key < pairs[j].key
	})

	encoded := make([]string, len(pairs))
	for i, kv := range pairs {
		encoded[i] = kv.key + "=" + kv.value
	}

	return strings.Join([]string{
		strings.ToUpper(p.Method),
		oauth1.PercentEncode(baseURL(u)),
		oauth1.PercentEncode(strings.Join(encoded, "&")),
	}, "&"), nil
}

func baseURL(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}

// macFactory builds the MAC primitive for a raw consumer secret.
type macFactory func(consumerSecret string) oauth1.Signer

func defaultMAC(consumerSecret string) oauth1.Signer {
	return &oauth1.HMACSigner{ConsumerSecret: consumerSecret}
}

func sign(p Params, newMAC macFactory) (string, error) {
	base, err := BaseString(p)
	if err != nil {
		return "", err
	}
	// HMACSigner keys the MAC with enc(consumerSecret)&enc(tokenSecret); secrets go in raw.
	signature, err := newMAC(p.ConsumerSecret).Sign(p.TokenSecret, base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCryptoUnavailable, err)
	}
	if signature == "" {
		return "", fmt.Errorf("%w: empty signature", domain.ErrCryptoUnavailable)
	}
	return signature, nil
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithNonce overrides the nonce source.
func WithNonce(nonce func() string) Option {
	return func(s *Signer) {
		s.nonce = nonce
	}
}

func withMAC(f macFactory) Option {
	return func(s *Signer) {
		s.newMAC = f
	}
}

// Signer authorizes requests with consumer credentials and a per-user token.
type Signer struct {
	consumerKey    string
	consumerSecret string
	now            func() time.Time
	nonce          func() string
	newMAC         macFactory
}

// New constructs a Signer for the given consumer credentials.
func New(consumerKey, consumerSecret string, opts ...Option) *Signer {
	s := &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		now:            time.Now,
		nonce:          func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		newMAC:         defaultMAC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize signs req and sets its Authorization header. On error the header is left untouched
// so the request is never sent unsigned by accident.
func (s *Signer) Authorize(req *http.Request, accessToken, tokenSecret string) error {
	p := Params{
		Method:         req.Method,
		URL:            req.URL.String(),
		ConsumerKey:    s.consumerKey,
		ConsumerSecret: s.consumerSecret,
		AccessToken:    accessToken,
		TokenSecret:    tokenSecret,
		Timestamp:      s.now().Unix(),
		Nonce:          s.nonce(),
	}
	signature, err := sign(p, s.newMAC)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", AuthorizationHeader(p, signature))
	return nil
}

// AuthorizationHeader renders the OAuth header value for p and its signature.
func AuthorizationHeader(p Params, signature string) string {
	params := p.oauthParams()
	params["oauth_signature"] = signature

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%q", oauth1.PercentEncode(key), oauth1.PercentEncode(params[key]))
	}
	return "OAuth " + strings.Join(parts, ", ")
}
