package grpc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSelfSignedCert(t *testing.T) (string, string) {
	t.Helper()
	requirer := require.New(t)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	requirer.NoError(err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	requirer.NoError(err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	requirer.NoError(err)

	dir := t.TempDir()
	certFile := filepath.Join(dir, "server.crt")
	keyFile := filepath.Join(dir, "server.key")
	requirer.NoError(os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	requirer.NoError(os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))

	return certFile, keyFile
}

func TestTransportCredentials(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)

	creds, err := transportCredentials(&Config{})
	requirer.NoError(err)
	asserter.Equal("insecure", creds.Info().SecurityProtocol)

	certFile, keyFile := writeSelfSignedCert(t)
	creds, err = transportCredentials(&Config{TLSCertFile: certFile, TLSKeyFile: keyFile})
	requirer.NoError(err)
	asserter.Equal("tls", creds.Info().SecurityProtocol)

	// a key without its certificate is a misconfiguration, not plaintext
	_, err = transportCredentials(&Config{TLSKeyFile: keyFile})
	requirer.Error(err)

	_, err = New(nil, &Config{TLSCertFile: filepath.Join(t.TempDir(), "missing.crt"), TLSKeyFile: keyFile})
	requirer.Error(err)
}
