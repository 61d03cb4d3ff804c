package diff

import "testing"

func TestResolvePosition(t *testing.T) {
	patch := `@@ -1,3 +1,4 @@
 line1
+line2new
 line3
 line4`

	t.Run("added line resolves", func(t *testing.T) {
		position, found := ResolvePosition(patch, 2)
		if !found {
			t.Fatal("expected a position for line 2")
		}
		// line1 is position 1, the addition below it is position 2; the
		// hunk header itself never occupies a position.
		if position != 2 {
			t.Errorf("position = %d, want 2", position)
		}
	})

	t.Run("context lines do not anchor", func(t *testing.T) {
		// Only additions can carry an inline comment; line 3 is unchanged
		// context and must fall back to a file-level comment.
		if _, found := ResolvePosition(patch, 3); found {
			t.Error("context line 3 must not resolve to a position")
		}
	})

	t.Run("header does not occupy a position", func(t *testing.T) {
		oracle := "@@ -1,3 +1,4 @@\n a\n+b\n c\n d"
		position, found := ResolvePosition(oracle, 2)
		if !found {
			t.Fatal("expected a position for the added line")
		}
		// The context line is position 1, the addition position 2; the
		// header line itself counts for nothing.
		if position != 2 {
			t.Errorf("position = %d, want 2", position)
		}
	})

	t.Run("line outside every hunk", func(t *testing.T) {
		if _, found := ResolvePosition(patch, 100); found {
			t.Error("line 100 is not in the patch")
		}
	})

	t.Run("empty patch", func(t *testing.T) {
		if _, found := ResolvePosition("", 1); found {
			t.Error("empty patch cannot anchor a comment")
		}
	})

	t.Run("non-positive target", func(t *testing.T) {
		if _, found := ResolvePosition(patch, 0); found {
			t.Error("line 0 must not resolve")
		}
	})

	t.Run("deleted lines consume positions but not line numbers", func(t *testing.T) {
		replacement := `@@ -1,4 +1,4 @@
 line1
-old line
+new line
 line3
 line4`
		// The replacement is output line 2, but the deletion above it
		// already consumed position 2, so the addition sits at 3.
		position, found := ResolvePosition(replacement, 2)
		if !found {
			t.Fatal("expected a position for line 2")
		}
		if position != 3 {
			t.Errorf("position = %d, want 3", position)
		}
	})

	t.Run("deletion-only hunk anchors nothing", func(t *testing.T) {
		removal := `@@ -1,3 +1,2 @@
 line1
-old line
 line2`
		// No output line corresponds to an addition here; every target
		// must fall back rather than anchor to a deletion or context line.
		for _, target := range []int{1, 2, 3} {
			if _, found := ResolvePosition(removal, target); found {
				t.Errorf("line %d must not resolve in a deletion-only hunk", target)
			}
		}
	})

	t.Run("second hunk resets the line counter", func(t *testing.T) {
		multi := `@@ -1,2 +1,3 @@
 line1
+line2
 line3
@@ -10,2 +11,3 @@
 line11
+line12
 line13`
		position, found := ResolvePosition(multi, 12)
		if !found {
			t.Fatal("expected a position for line 12")
		}
		// Three body lines in hunk one, then two below the second header.
		if position != 5 {
			t.Errorf("position = %d, want 5", position)
		}
	})

	t.Run("malformed header is skipped", func(t *testing.T) {
		broken := "@@ broken @@\n+orphan\n@@ -1,1 +1,2 @@\n line1\n+line2"
		position, found := ResolvePosition(broken, 2)
		if !found {
			t.Fatal("expected the second hunk to resolve")
		}
		// The orphan body line still consumes position 1.
		if position != 3 {
			t.Errorf("position = %d, want 3", position)
		}
	})
}
