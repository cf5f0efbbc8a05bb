package render

import (
	"strings"
	"testing"
	"testing/fstest"
)

func templateFS() fstest.MapFS {
	return fstest.MapFS{
		"post.html":  &fstest.MapFile{Data: []byte("<h1>{{ Post.Title }}</h1>")},
		"index.html": &fstest.MapFile{Data: []byte("{% for post in Posts %}{{ post.Title }};{% endfor %}")},
		"notes.txt":  &fstest.MapFile{Data: []byte("ignored")},
	}
}

func TestNewRenderer_CompilesTemplates(t *testing.T) {
	renderer, err := NewRenderer(templateFS())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	names := renderer.Names()
	if len(names) != 2 || names[0] != "index.html" || names[1] != "post.html" {
		t.Fatalf("expected compiled html templates, got %v", names)
	}
}

func TestNewRenderer_Empty(t *testing.T) {
	if _, err := NewRenderer(fstest.MapFS{}); err == nil {
		t.Fatalf("expected error for a filesystem without templates")
	}
}

func TestRenderTemplate(t *testing.T) {
	renderer, err := NewRenderer(templateFS())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	type post struct{ Title string }

	out, err := renderer.RenderTemplate("post", map[string]any{
		"Post": post{Title: "Hello"},
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out != "<h1>Hello</h1>" {
		t.Fatalf("unexpected output %q", out)
	}

	// Lookup also accepts the full file name.
	out, err = renderer.RenderTemplate("index.html", map[string]any{
		"Posts": []post{{Title: "a"}, {Title: "b"}},
	})
	if err != nil {
		t.Fatalf("RenderTemplate: %v", err)
	}
	if out != "a;b;" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRenderTemplate_Unknown(t *testing.T) {
	renderer, err := NewRenderer(templateFS())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := renderer.RenderTemplate("missing", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestRenderString(t *testing.T) {
	renderer, err := NewRenderer(templateFS())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := renderer.RenderString("Hello {{ name }}", map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "Hello world" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRegisterFilter(t *testing.T) {
	renderer, err := NewRenderer(templateFS())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	if err := renderer.RegisterFilter("shout", func(input any, _ any) (any, error) {
		s, _ := input.(string)
		return strings.ToUpper(s), nil
	}); err != nil {
		t.Fatalf("RegisterFilter: %v", err)
	}

	out, err := renderer.RenderString("{{ name|shout }}", map[string]any{"name": "quiet"})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "QUIET" {
		t.Fatalf("unexpected output %q", out)
	}
}
