package fetch

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

var errPrivateAddress = errors.New("destination address is not public")

// publicAddr reports whether addr may be dialled from the server.
func publicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsUnspecified()
}

// dialControl runs after DNS resolution, so it also catches public names
// that resolve to internal addresses.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	if !publicAddr(addr) {
		return fmt.Errorf("%w: %s", errPrivateAddress, host)
	}
	return nil
}

// newPublicClient returns a client that refuses to connect to loopback,
// private, link-local and unspecified addresses.
func newPublicClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil
	return &http.Client{Transport: transport}
}

// checkTarget rejects URLs the fetcher must never request: anything but http
// or https, and literal internal addresses unless private hosts are allowed.
func checkTarget(rawURL string, allowPrivate bool) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return errs.NewValidationError("source URL is not a valid absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errs.NewValidationError("source URL must use http or https")
	}
	if allowPrivate {
		return nil
	}
	if u.Hostname() == "localhost" {
		return errs.NewValidationError("source URL must point to a public host")
	}
	if addr, err := netip.ParseAddr(u.Hostname()); err == nil && !publicAddr(addr) {
		return errs.NewValidationError("source URL must point to a public host")
	}
	return nil
}
