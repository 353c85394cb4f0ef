package fingerprint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile names the TLS ClientHello an outbound fetch presents.
type Profile string

const (
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileGo      Profile = "go"     // crypto/tls as shipped
	ProfileRandom  Profile = "random" // randomized uTLS hello
)

var helloIDs = map[Profile]utls.ClientHelloID{
	ProfileChrome:  utls.HelloChrome_Auto,
	ProfileFirefox: utls.HelloFirefox_Auto,
	ProfileSafari:  utls.HelloIOS_Auto,
	ProfileRandom:  utls.HelloRandomizedNoALPN,
}

// ParseProfile maps a config value onto a Profile. Empty means chrome.
func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ProfileChrome, nil
	}
	if p == ProfileGo {
		return p, nil
	}
	if _, ok := helloIDs[p]; !ok {
		return "", fmt.Errorf("unknown fingerprint profile %q", s)
	}
	return p, nil
}

// Options tune the transport beyond the profile.
type Options struct {
	// Proxy selects a proxy per request; nil means direct.
	Proxy func(*http.Request) (*url.URL, error)
	// InsecureSkipVerify disables certificate checks. Tests only.
	InsecureSkipVerify bool
}

// Transport returns a RoundTripper presenting the profile's ClientHello.
// ProfileGo yields a plain clone of http.DefaultTransport.
//
// uTLS hellos are rewritten to offer only http/1.1 over ALPN: the returned
// transport speaks HTTP/1.1 and would otherwise break on servers that pick h2.
func Transport(p Profile, opts Options) (http.RoundTripper, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil {
		transport.Proxy = opts.Proxy
	}

	if p == ProfileGo {
		if opts.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		return transport, nil
	}

	id, ok := helloIDs[p]
	if !ok {
		return nil, fmt.Errorf("unknown fingerprint profile %q", p)
	}

	// Fail fast on a bad profile; specs are rebuilt per dial because
	// ApplyPreset keeps per-connection key material in them.
	if _, err := helloSpec(id); err != nil {
		return nil, err
	}

	dial := transport.DialContext
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}

		spec, err := helloSpec(id)
		if err != nil {
			_ = raw.Close()
			return nil, err
		}

		cfg := &utls.Config{ServerName: host, InsecureSkipVerify: opts.InsecureSkipVerify}
		var conn *utls.UConn
		if spec != nil {
			conn = utls.UClient(raw, cfg, utls.HelloCustom)
			if err := conn.ApplyPreset(spec); err != nil {
				_ = raw.Close()
				return nil, fmt.Errorf("apply %s hello: %w", p, err)
			}
		} else {
			conn = utls.UClient(raw, cfg, id)
		}

		if err := conn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("utls handshake with %s: %w", host, err)
		}
		return conn, nil
	}

	return transport, nil
}

// helloSpec expands a fixed browser hello and pins its ALPN to http/1.1.
// Randomized hellos have no fixed spec and are used as-is.
func helloSpec(id utls.ClientHelloID) (*utls.ClientHelloSpec, error) {
	if id == utls.HelloRandomizedNoALPN {
		return nil, nil
	}
	spec, err := utls.UTLSIdToSpec(id)
	if err != nil {
		return nil, fmt.Errorf("expand hello %s: %w", id.Str(), err)
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return &spec, nil
}
