package crypto

import "testing"

func TestGenerateKeyPairAndAddress(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	if len(pub.Hex()) != 64 {
		t.Errorf("pubkey hex length: got %d want 64", len(pub.Hex()))
	}
	if addr := pub.Address(); len(addr) != 40 {
		t.Errorf("address length: got %d want 40", len(addr))
	}
	if priv.Public().Hex() != pub.Hex() {
		t.Error("derived public key does not match generated public key")
	}
}

func TestPubKeyFromHexRoundtrip(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := PubKeyFromHex(pub.Hex())
	if err != nil {
		t.Fatalf("PubKeyFromHex: %v", err)
	}
	if decoded.Hex() != pub.Hex() {
		t.Error("roundtrip through hex changed the key")
	}
}

func TestPubKeyFromHexRejectsWrongLength(t *testing.T) {
	if _, err := PubKeyFromHex("abcd"); err == nil {
		t.Fatal("expected error for undersized pubkey hex")
	}
}

func TestPrivKeyFromHexRejectsInvalidHex(t *testing.T) {
	if _, err := PrivKeyFromHex("not-hex!!"); err == nil {
		t.Fatal("expected error for malformed hex")
	}
}
