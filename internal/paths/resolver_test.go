package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestResolver_Resolve_ProjectBeforeUser(t *testing.T) {
	projectRoot := t.TempDir()
	userRoot := t.TempDir()
	t.Setenv("USER_SPACE", userRoot)

	projectFile := filepath.Join(projectRoot, ".ai", "tools", "fetch_url.py")
	userFile := filepath.Join(userRoot, "tools", "fetch_url.py")
	writeFile(t, projectFile, "# project version")
	writeFile(t, userFile, "# user version")

	r := New(models.KindTool, projectRoot)
	path, scope, found := r.Resolve("fetch_url")
	if !found {
		t.Fatal("Resolve() found = false, want true")
	}
	if scope != models.ScopeProject {
		t.Errorf("scope = %q, want %q", scope, models.ScopeProject)
	}
	if path != projectFile {
		t.Errorf("path = %q, want %q", path, projectFile)
	}
}

func TestResolver_Resolve_FallsBackToUser(t *testing.T) {
	projectRoot := t.TempDir()
	userRoot := t.TempDir()
	t.Setenv("USER_SPACE", userRoot)

	userFile := filepath.Join(userRoot, "directives", "plan_refactor.md")
	writeFile(t, userFile, "# directive")

	r := New(models.KindDirective, projectRoot)
	path, scope, found := r.Resolve("plan_refactor")
	if !found {
		t.Fatal("Resolve() found = false, want true")
	}
	if scope != models.ScopeUser {
		t.Errorf("scope = %q, want %q", scope, models.ScopeUser)
	}
	if path != userFile {
		t.Errorf("path = %q, want %q", path, userFile)
	}
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	projectRoot := t.TempDir()
	t.Setenv("USER_SPACE", t.TempDir())

	r := New(models.KindKnowledge, projectRoot)
	_, _, found := r.Resolve("nonexistent")
	if found {
		t.Error("Resolve() found = true, want false")
	}
}

func TestResolver_Resolve_TriesToolExtensionsInOrder(t *testing.T) {
	projectRoot := t.TempDir()
	t.Setenv("USER_SPACE", t.TempDir())

	yamlFile := filepath.Join(projectRoot, ".ai", "tools", "http_post.yaml")
	writeFile(t, yamlFile, "id: http_post")

	r := New(models.KindTool, projectRoot)
	path, _, found := r.Resolve("http_post")
	if !found {
		t.Fatal("Resolve() found = false, want true")
	}
	if path != yamlFile {
		t.Errorf("path = %q, want %q", path, yamlFile)
	}
}

func TestResolver_CategoryPath(t *testing.T) {
	projectRoot := t.TempDir()
	t.Setenv("USER_SPACE", t.TempDir())

	nestedFile := filepath.Join(projectRoot, ".ai", "knowledge", "billing", "refunds.md")
	writeFile(t, nestedFile, "# refunds")

	r := New(models.KindKnowledge, projectRoot)
	path, scope, found := r.Resolve("refunds")
	if !found {
		t.Fatal("Resolve() found = false, want true")
	}
	if got := r.CategoryPath(path, scope); got != "billing" {
		t.Errorf("CategoryPath() = %q, want %q", got, "billing")
	}
}

func TestResolver_CategoryPath_TopLevel(t *testing.T) {
	projectRoot := t.TempDir()
	t.Setenv("USER_SPACE", t.TempDir())

	flatFile := filepath.Join(projectRoot, ".ai", "knowledge", "faq.md")
	writeFile(t, flatFile, "# faq")

	r := New(models.KindKnowledge, projectRoot)
	path, scope, found := r.Resolve("faq")
	if !found {
		t.Fatal("Resolve() found = false, want true")
	}
	if got := r.CategoryPath(path, scope); got != "" {
		t.Errorf("CategoryPath() = %q, want empty", got)
	}
}

func TestUserSpace_DefaultsToDotAI(t *testing.T) {
	t.Setenv("USER_SPACE", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir available")
	}
	want := filepath.Join(home, ".ai")
	if got := UserSpace(); got != want {
		t.Errorf("UserSpace() = %q, want %q", got, want)
	}
}
