package verify

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/metadata"
	"github.com/kiwimcp/kiwimcp/internal/models"
)

func writeSignedKnowledge(t *testing.T) (path, hash string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "refunds.md")
	body := "Refunds are issued within 30 days."
	content := "---\ntitle: Refunds\nversion: 1.0.0\n---\n" + body

	a := &models.Artifact{
		Kind:          models.KindKnowledge,
		ID:            "refunds",
		Version:       "1.0.0",
		Path:          path,
		CanonicalBody: body,
		Knowledge:     &models.KnowledgeMetadata{ID: "refunds", Category: "billing"},
	}
	hash, err := metadata.UnifiedHash(a)
	if err != nil {
		t.Fatalf("UnifiedHash() error: %v", err)
	}
	signed, err := metadata.SignWithHash(models.KindKnowledge, ".md", content, hash, time.Now())
	if err != nil {
		t.Fatalf("SignWithHash() error: %v", err)
	}
	if err := os.WriteFile(path, []byte(signed), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path, hash
}

func TestVerifySingle_ValidArtifact(t *testing.T) {
	path, hash := writeSignedKnowledge(t)
	v := New()

	if err := v.VerifySingle(models.KindKnowledge, "refunds", "1.0.0", path, hash); err != nil {
		t.Errorf("VerifySingle() error: %v", err)
	}
}

func TestVerifySingle_TamperedContentFails(t *testing.T) {
	path, hash := writeSignedKnowledge(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	tampered := string(raw) + "\nEXTRA MALICIOUS LINE"
	if err := os.WriteFile(path, []byte(tampered), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	v := New()
	err = v.VerifySingle(models.KindKnowledge, "refunds", "1.0.0", path, hash)
	if err == nil {
		t.Fatal("VerifySingle() expected error for tampered content, got nil")
	}
	var ke *kerrors.Error
	if !asKerror(err, &ke) || ke.Kind != kerrors.IntegrityMismatch {
		t.Errorf("error = %v, want kerrors.IntegrityMismatch", err)
	}
}

func TestVerifySingle_MissingSignature(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unsigned.md")
	if err := os.WriteFile(path, []byte("---\ntitle: X\nversion: 1.0.0\n---\nbody"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	v := New()
	err := v.VerifySingle(models.KindKnowledge, "unsigned", "1.0.0", path, "anyhash")
	if err == nil {
		t.Fatal("VerifySingle() expected error for missing signature, got nil")
	}
	var ke *kerrors.Error
	if !asKerror(err, &ke) || ke.Kind != kerrors.SignatureMissing {
		t.Errorf("error = %v, want kerrors.SignatureMissing", err)
	}
}

func TestVerifySingle_CachesResult(t *testing.T) {
	path, hash := writeSignedKnowledge(t)
	v := New()

	if err := v.VerifySingle(models.KindKnowledge, "refunds", "1.0.0", path, hash); err != nil {
		t.Fatalf("first VerifySingle() error: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	// Second call must hit the verified-hash cache and not touch the filesystem.
	if err := v.VerifySingle(models.KindKnowledge, "refunds", "1.0.0", path, hash); err != nil {
		t.Errorf("cached VerifySingle() error: %v", err)
	}

	stats := v.CacheStats()
	if stats.Verified != 1 {
		t.Errorf("CacheStats().Verified = %d, want 1", stats.Verified)
	}
}

func TestVerifySingle_CachesFailure(t *testing.T) {
	v := New()
	err1 := v.VerifySingle(models.KindKnowledge, "missing", "1.0.0", "/nonexistent/path.md", "deadbeef")
	if err1 == nil {
		t.Fatal("expected error for nonexistent path")
	}
	err2 := v.VerifySingle(models.KindKnowledge, "missing", "1.0.0", "/nonexistent/path.md", "deadbeef")
	if err2 == nil {
		t.Fatal("expected cached failure error")
	}

	stats := v.CacheStats()
	if stats.Failed != 1 {
		t.Errorf("CacheStats().Failed = %d, want 1", stats.Failed)
	}
}

func asKerror(err error, target **kerrors.Error) bool {
	if ke, ok := err.(*kerrors.Error); ok {
		*target = ke
		return true
	}
	return false
}
