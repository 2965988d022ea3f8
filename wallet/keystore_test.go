package wallet

import (
	"path/filepath"
	"testing"

	"github.com/lumenledger/stoa/crypto"
)

func TestSaveKeyLoadKeyRoundTrip(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "keystore.json")

	if err := SaveKey(path, "hunter2", priv); err != nil {
		t.Fatalf("SaveKey: %v", err)
	}
	loaded, err := LoadKey(path, "hunter2")
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if loaded.Hex() != priv.Hex() {
		t.Fatalf("LoadKey() = %s, want %s", loaded.Hex(), priv.Hex())
	}
}

func TestLoadKeyWrongPasswordFails(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "keystore.json")
	if err := SaveKey(path, "correct-password", priv); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadKey(path, "wrong-password"); err == nil {
		t.Fatal("expected an error decrypting with the wrong password")
	}
}
