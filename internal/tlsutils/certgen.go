package tlsutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// GenerateSelfSignedTLSCertificate writes a self-signed certificate for the given host into a temporary directory.
// It returns the certificate and key file paths as well as a function that removes them.
func GenerateSelfSignedTLSCertificate(host string) (string, string, func(), error) {
	certPEM, keyPEM, err := generateSelfSignedTLSCertificate(host)
	if err != nil {
		return "", "", func() {}, err
	}

	dir, err := os.MkdirTemp("", "voice-transcription-bot-tls-")
	if err != nil {
		return "", "", func() {}, err
	}

	cleanup := func() {
		_ = os.RemoveAll(dir)
	}

	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")

	err = os.WriteFile(certFile, certPEM, 0o600)
	if err != nil {
		cleanup()
		return "", "", func() {}, err
	}

	err = os.WriteFile(keyFile, keyPEM, 0o600)
	if err != nil {
		cleanup()
		return "", "", func() {}, err
	}

	return certFile, keyFile, cleanup, nil
}

func generateSelfSignedTLSCertificate(host string) ([]byte, []byte, error) {
	if host == "" {
		return nil, nil, fmt.Errorf("no certificate host name provided")
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate ECDSA key: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(365 * 24 * time.Hour)

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial number: %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			CommonName:   host,
			Organization: []string{"voice-transcription-bot"},
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	} else {
		template.DNSNames = []string{host}
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	privBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ECDSA private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privBytes})

	return certPEM, keyPEM, nil
}
