package cmd

import "testing"

func TestSplitRepo(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		owner, name, err := splitRepo("acme/widgets")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if owner != "acme" || name != "widgets" {
			t.Errorf("got %s/%s, want acme/widgets", owner, name)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, repo := range []string{"", "acme", "/widgets", "acme/"} {
			if _, _, err := splitRepo(repo); err == nil {
				t.Errorf("splitRepo(%q) should fail", repo)
			}
		}
	})
}

func TestGithubToken(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		if _, err := githubToken(); err == nil {
			t.Error("expected error when GITHUB_TOKEN is unset")
		}
	})

	t.Run("present", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "ghp_test")
		token, err := githubToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "ghp_test" {
			t.Errorf("token = %q", token)
		}
	})
}
