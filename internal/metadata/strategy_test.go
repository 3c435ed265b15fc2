package metadata

import (
	"strings"
	"testing"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

func TestDirectiveStrategy_RoundTrip(t *testing.T) {
	s := DirectiveStrategy{}
	body := "```xml\n<directive name=\"x\" version=\"1.0.0\">\n<permission tag=\"fs\"/>\n</directive>\n```"

	signed := s.InsertSignature(body, s.FormatSignature("2026-08-01T00:00:00Z", strings.Repeat("a", 64)))
	sig := s.ExtractSignature(signed)
	if sig == nil {
		t.Fatal("ExtractSignature() = nil, want signature")
	}
	if sig.Timestamp != "2026-08-01T00:00:00Z" {
		t.Errorf("Timestamp = %q, want %q", sig.Timestamp, "2026-08-01T00:00:00Z")
	}
	if sig.Hash != strings.Repeat("a", 64) {
		t.Errorf("Hash = %q, want 64 a's", sig.Hash)
	}

	extracted, err := s.ExtractContentForHash(signed)
	if err != nil {
		t.Fatalf("ExtractContentForHash() error: %v", err)
	}
	if !strings.Contains(extracted, "<directive") || strings.Contains(extracted, "kiwi-mcp:validated") {
		t.Errorf("ExtractContentForHash() = %q, want XML body without signature", extracted)
	}
}

func TestDirectiveStrategy_RemoveSignature_IsIdempotentOnReSign(t *testing.T) {
	s := DirectiveStrategy{}
	body := "<directive name=\"x\"></directive>"
	once := s.InsertSignature(body, s.FormatSignature("t1", "h1"))
	twice := s.InsertSignature(once, s.FormatSignature("t2", "h2"))

	if strings.Count(twice, "kiwi-mcp:validated") != 1 {
		t.Errorf("re-signing left %d signature lines, want 1", strings.Count(twice, "kiwi-mcp:validated"))
	}
	sig := s.ExtractSignature(twice)
	if sig.Timestamp != "t2" || sig.Hash != "h2" {
		t.Errorf("signature = %+v, want the newer one", sig)
	}
}

func TestToolStrategy_PythonKeepsShebangAheadOfSignature(t *testing.T) {
	s := ToolStrategy{Ext: ".py"}
	body := "#!/usr/bin/env python3\nimport os\n"

	signed := s.InsertSignature(body, s.FormatSignature("2026-08-01T00:00:00Z", strings.Repeat("b", 64)))
	if !strings.HasPrefix(signed, "#!/usr/bin/env python3\n") {
		t.Errorf("signed content = %q, want shebang first", signed)
	}

	sig := s.ExtractSignature(signed)
	if sig == nil {
		t.Fatal("ExtractSignature() = nil, want signature")
	}
	if sig.Hash != strings.Repeat("b", 64) {
		t.Errorf("Hash = %q, want 64 b's", sig.Hash)
	}

	hashed, err := s.ExtractContentForHash(signed)
	if err != nil {
		t.Fatalf("ExtractContentForHash() error: %v", err)
	}
	if strings.Contains(hashed, "#!/") || strings.Contains(hashed, "kiwi-mcp:validated") {
		t.Errorf("ExtractContentForHash() = %q, want shebang and signature stripped", hashed)
	}
	if !strings.Contains(hashed, "import os") {
		t.Errorf("ExtractContentForHash() = %q, want body preserved", hashed)
	}
}

func TestToolStrategy_YAMLHasNoShebang(t *testing.T) {
	s := ToolStrategy{Ext: ".yaml"}
	body := "id: fetch_url\nversion: 1.0.0\n"

	signed := s.InsertSignature(body, s.FormatSignature("t", strings.Repeat("c", 64)))
	if !strings.HasPrefix(signed, "# kiwi-mcp:validated:") {
		t.Errorf("signed content = %q, want signature at the very top", signed)
	}
}

func TestToolStrategy_ShellHasNoShebangHandling(t *testing.T) {
	s := ToolStrategy{Ext: ".sh"}
	body := "#!/bin/sh\necho hi\n"

	signed := s.InsertSignature(body, s.FormatSignature("t", strings.Repeat("e", 64)))
	if !strings.HasPrefix(signed, "# kiwi-mcp:validated:") {
		t.Errorf("signed content = %q, want signature at the very top, shebang not treated specially", signed)
	}

	hashed, err := s.ExtractContentForHash(signed)
	if err != nil {
		t.Fatalf("ExtractContentForHash() error: %v", err)
	}
	if strings.Contains(hashed, "kiwi-mcp:validated") {
		t.Errorf("ExtractContentForHash() = %q, want signature stripped", hashed)
	}
	if !strings.HasPrefix(hashed, "#!/bin/sh") {
		t.Errorf("ExtractContentForHash() = %q, want shebang left in place for shell tools", hashed)
	}
}

func TestKnowledgeStrategy_StripsFrontmatterBeforeHashing(t *testing.T) {
	s := KnowledgeStrategy{}
	body := "---\ntitle: Refunds\nversion: 1.0.0\n---\nPolicy content here."

	signed := s.InsertSignature(body, s.FormatSignature("t", strings.Repeat("d", 64)))
	hashed, err := s.ExtractContentForHash(signed)
	if err != nil {
		t.Fatalf("ExtractContentForHash() error: %v", err)
	}
	if strings.Contains(hashed, "title: Refunds") {
		t.Errorf("ExtractContentForHash() = %q, want frontmatter stripped", hashed)
	}
	if hashed != "Policy content here." {
		t.Errorf("ExtractContentForHash() = %q, want %q", hashed, "Policy content here.")
	}
}

func TestForKind_UnknownKind(t *testing.T) {
	if _, err := ForKind(models.Kind("bogus"), ""); err == nil {
		t.Error("ForKind(bogus) expected error, got nil")
	}
}
