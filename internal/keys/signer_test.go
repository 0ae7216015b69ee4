package keys

import "testing"

func TestSignAndVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data := []byte("location sign data")
	sig := kp.Sign(data)
	if !kp.Verify(data, sig) {
		t.Fatalf("expected signature to verify")
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	sig := kp.Sign([]byte("original"))
	if kp.Verify([]byte("tampered"), sig) {
		t.Fatalf("expected tampered data to fail verification")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data := []byte("shared data")
	sig := a.Sign(data)
	if b.Verify(data, sig) {
		t.Fatalf("expected verification under the wrong key to fail")
	}
}

func TestGenerateFromSeedIsDeterministic(t *testing.T) {
	a, err := GenerateFromSeed([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	b, err := GenerateFromSeed([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if a.PublicKey() != b.PublicKey() {
		t.Fatalf("expected the same seed to derive the same public key")
	}

	data := []byte("cross-process sign data")
	sig := a.Sign(data)
	if !b.Verify(data, sig) {
		t.Fatalf("expected b (same seed) to verify a's signature")
	}
}

func TestGenerateFromSeedDiffersAcrossSeeds(t *testing.T) {
	a, err := GenerateFromSeed([]byte("secret-one"))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	b, err := GenerateFromSeed([]byte("secret-two"))
	if err != nil {
		t.Fatalf("GenerateFromSeed: %v", err)
	}
	if a.PublicKey() == b.PublicKey() {
		t.Fatalf("expected different seeds to derive different public keys")
	}
}
