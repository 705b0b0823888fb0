package transport

import (
	"crypto/x509"

	"github.com/graphbolt/driver/boltcodes"
)

func newCertPool(pemCerts []byte) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemCerts) {
		return nil, boltcodes.New(boltcodes.TLSError, "transport: no valid certificates in trust config")
	}
	return pool, nil
}

// verifyCertsOnly builds a VerifyPeerCertificate callback that checks the
// presented chain against pinned certs while skipping hostname matching,
// for the trust_for_specific_certs-without-hostname-check trust mode.
func verifyCertsOnly(pemCerts []byte) func([][]byte, [][]*x509.Certificate) error {
	pool, err := newCertPool(pemCerts)
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		if err != nil {
			return err
		}
		if len(rawCerts) == 0 {
			return boltcodes.New(boltcodes.TLSError, "transport: server presented no certificate")
		}
		cert, parseErr := x509.ParseCertificate(rawCerts[0])
		if parseErr != nil {
			return boltcodes.Wrap(boltcodes.TLSError, "transport: parse peer certificate", parseErr)
		}
		opts := x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageAny}}
		if _, verifyErr := cert.Verify(opts); verifyErr != nil {
			return boltcodes.Wrap(boltcodes.TLSError, "transport: verify peer certificate", verifyErr)
		}
		return nil
	}
}
