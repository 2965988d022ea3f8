package crypto

import "testing"

func TestSignVerifyRoundtrip(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("stoa test payload")
	sig := Sign(priv, data)
	if err := Verify(pub, data, sig); err != nil {
		t.Errorf("valid signature failed to verify: %v", err)
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	priv, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	sig := Sign(priv, []byte("original"))
	if err := Verify(pub, []byte("tampered"), sig); err == nil {
		t.Error("tampered data must fail verification")
	}
}

func TestVerifyRejectsMalformedSignature(t *testing.T) {
	_, pub, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if err := Verify(pub, []byte("data"), "not-hex"); err == nil {
		t.Error("malformed signature hex must be rejected")
	}
}
