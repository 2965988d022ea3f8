package certgen

import (
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateAllWritesAVerifiableChain(t *testing.T) {
	dir := t.TempDir()
	if err := GenerateAll(dir, "node-1", nil); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}

	caCert := loadCert(t, filepath.Join(dir, "ca.crt"))
	if !caCert.IsCA {
		t.Fatal("ca.crt is not marked as a CA")
	}
	nodeCert := loadCert(t, filepath.Join(dir, "node-1.crt"))
	if nodeCert.Subject.CommonName != "node-1" {
		t.Fatalf("node cert CommonName = %s, want node-1", nodeCert.Subject.CommonName)
	}

	pool := x509.NewCertPool()
	pool.AddCert(caCert)
	if _, err := nodeCert.Verify(x509.VerifyOptions{Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}}); err != nil {
		t.Fatalf("node cert does not chain to the generated CA: %v", err)
	}

	foundLoopback := false
	for _, ip := range nodeCert.IPAddresses {
		if ip.Equal(net.IPv4(127, 0, 0, 1)) {
			foundLoopback = true
		}
	}
	if !foundLoopback {
		t.Fatalf("node cert SANs = %v, want 127.0.0.1 present", nodeCert.IPAddresses)
	}

	for _, name := range []string{"ca.key", "node-1.key"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Mode().Perm() != 0600 {
			t.Fatalf("%s mode = %v, want 0600", name, info.Mode().Perm())
		}
	}
}

func TestGenerateAllHonorsExtraSANs(t *testing.T) {
	dir := t.TempDir()
	opts := &Options{ExtraIPs: []net.IP{net.IPv4(10, 0, 0, 5)}, ExtraDNS: []string{"stoa.internal"}}
	if err := GenerateAll(dir, "node-2", opts); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	nodeCert := loadCert(t, filepath.Join(dir, "node-2.crt"))

	foundDNS := false
	for _, d := range nodeCert.DNSNames {
		if d == "stoa.internal" {
			foundDNS = true
		}
	}
	if !foundDNS {
		t.Fatalf("node cert DNSNames = %v, want stoa.internal present", nodeCert.DNSNames)
	}
}

func loadCert(t *testing.T, path string) *x509.Certificate {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		t.Fatalf("%s contains no PEM block", path)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse certificate %s: %v", path, err)
	}
	return cert
}
