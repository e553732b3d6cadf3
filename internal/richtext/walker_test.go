package richtext

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

type call struct {
	text, target, source string
}

type recordingGateway struct {
	calls []call
	fail  map[string]bool
}

func (g *recordingGateway) TranslateText(_ context.Context, text, target, source string, _ interfaces.TranslationSettings) (string, error) {
	g.calls = append(g.calls, call{text: text, target: target, source: source})
	if g.fail[text] {
		return "", errors.New("provider rejected text")
	}
	return "[" + target + "] " + text, nil
}

func sampleTree() map[string]any {
	return map[string]any{
		"root": map[string]any{
			"type": "root",
			"children": []any{
				map[string]any{
					"type": "paragraph",
					"children": []any{
						map[string]any{"type": "text", "text": "Hello", "format": 1},
						map[string]any{"type": "linebreak"},
						map[string]any{"type": "text", "text": "   "},
					},
				},
				map[string]any{
					"type": "heading",
					"tag":  "h2",
					"children": []map[string]any{
						{"type": "text", "text": "World"},
					},
				},
			},
		},
	}
}

func TestWalkTranslatesLeavesDepthFirst(t *testing.T) {
	gw := &recordingGateway{}
	tree := sampleTree()
	root, _ := Root(tree)

	stats := NewWalker(gw).Walk(context.Background(), root, Target{SourceLocale: "en", TargetLocale: "es"})

	if stats.Translated != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	want := []call{{"Hello", "es", "en"}, {"World", "es", "en"}}
	if !reflect.DeepEqual(gw.calls, want) {
		t.Fatalf("unexpected calls %v", gw.calls)
	}
	if got := leafTexts(root); !reflect.DeepEqual(got, []string{"[es] Hello", "[es] World"}) {
		t.Fatalf("unexpected texts %v", got)
	}
}

func TestWalkKeepsFailedLeaf(t *testing.T) {
	gw := &recordingGateway{fail: map[string]bool{"Hello": true}}
	tree := sampleTree()
	root, _ := Root(tree)

	stats := NewWalker(gw).Walk(context.Background(), root, Target{TargetLocale: "de"})

	if stats.Failed != 1 || stats.Translated != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if got := leafTexts(root); !reflect.DeepEqual(got, []string{"Hello", "[de] World"}) {
		t.Fatalf("unexpected texts %v", got)
	}
}

func TestTranslatePreservesShapeAndOriginal(t *testing.T) {
	gw := &recordingGateway{}
	original := sampleTree()
	snapshot := CloneMap(original)

	out, stats, err := NewWalker(gw).Translate(context.Background(), original, Target{FieldPath: "body", TargetLocale: "fr"})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if stats.Translated != 2 {
		t.Fatalf("expected 2 translations, got %+v", stats)
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Fatal("expected source tree to stay untouched")
	}

	origRoot, _ := Root(original)
	outRoot, _ := Root(out)
	if CountNodes(origRoot) != CountNodes(outRoot) {
		t.Fatalf("node count changed: %d -> %d", CountNodes(origRoot), CountNodes(outRoot))
	}

	paragraph := Children(outRoot)[0]
	leaf := Children(paragraph)[0]
	if leaf["format"] != 1 {
		t.Fatalf("expected non-text attributes preserved, got %v", leaf)
	}
}

func TestTranslateFallsBackOnMalformedTree(t *testing.T) {
	gw := &recordingGateway{}
	malformed := map[string]any{
		"root": "not-a-node",
	}

	out, _, err := NewWalker(gw).Translate(context.Background(), malformed, Target{FieldPath: "body", TargetLocale: "fr"})
	if err == nil {
		t.Fatal("expected structural error")
	}
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var structural *StructuralError
	if !errors.As(err, &structural) || structural.FieldPath != "body" {
		t.Fatalf("expected StructuralError for body, got %v", err)
	}
	if !strings.Contains(err.Error(), "body") {
		t.Fatalf("expected field path in message, got %q", err.Error())
	}
	if !reflect.DeepEqual(out, malformed) {
		t.Fatalf("expected unmodified clone, got %v", out)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("expected no gateway calls, got %d", len(gw.calls))
	}
}

func TestValidateChecksEnvelopeOnly(t *testing.T) {
	cases := []struct {
		name  string
		value map[string]any
		ok    bool
	}{
		{"sample", sampleTree(), true},
		{"odd nodes below root", map[string]any{"root": map[string]any{"children": []any{map[string]any{"type": "text", "text": 42}}}}, true},
		{"missing root", map[string]any{"body": map[string]any{}}, false},
		{"scalar root", map[string]any{"root": 7}, false},
		{"list root", map[string]any{"root": []any{}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.value)
			if tc.ok && err != nil {
				t.Fatalf("expected valid envelope, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestTranslateSkipsOddNodesAndKeepsTranslating(t *testing.T) {
	odd := []struct {
		name string
		node map[string]any
	}{
		{"nil children", map[string]any{"type": "paragraph", "children": nil}},
		{"numeric type", map[string]any{"type": 3, "text": "Skipped"}},
		{"numeric text", map[string]any{"type": "text", "text": 42}},
		{"mapping children", map[string]any{"type": "list", "children": map[string]any{"type": "text", "text": "Hidden"}}},
		{"scalar child", nil},
	}
	for _, tc := range odd {
		t.Run(tc.name, func(t *testing.T) {
			var oddChild any = tc.node
			if tc.node == nil {
				oddChild = "stray"
			}
			value := map[string]any{
				"root": map[string]any{
					"type": "root",
					"children": []any{
						map[string]any{"type": "text", "text": "Hello"},
						oddChild,
					},
				},
			}
			snapshot := CloneMap(value)
			gw := &recordingGateway{}

			out, stats, err := NewWalker(gw).Translate(context.Background(), value, Target{FieldPath: "body", TargetLocale: "fr"})
			if err != nil {
				t.Fatalf("expected tolerant walk, got %v", err)
			}
			if stats.Translated != 1 || stats.Failed != 0 {
				t.Fatalf("unexpected stats %+v", stats)
			}
			root := mustRoot(t, out)
			children, _ := root["children"].([]any)
			if first, _ := children[0].(map[string]any); first["text"] != "[fr] Hello" {
				t.Fatalf("expected translated leaf, got %v", children[0])
			}
			if !reflect.DeepEqual(children[1], snapshot["root"].(map[string]any)["children"].([]any)[1]) {
				t.Fatalf("expected odd node untouched, got %v", children[1])
			}
		})
	}
}

func TestWalkCountsTransientFailures(t *testing.T) {
	gw := interfaces.TranslationGatewayFunc(func(_ context.Context, text, _, _ string, _ interfaces.TranslationSettings) (string, error) {
		switch text {
		case "Hello":
			return "", &gateway.TranslationError{Kind: gateway.KindNetwork, Err: errors.New("connection reset")}
		case "World":
			return "", &gateway.TranslationError{Kind: gateway.KindAuth}
		}
		return text, nil
	})

	stats := NewWalker(gw).Walk(context.Background(), mustRoot(t, sampleTree()), Target{TargetLocale: "fr"})
	if stats.Failed != 2 || stats.Transient != 1 {
		t.Fatalf("expected one transient of two failures, got %+v", stats)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := sampleTree()
	clone := CloneMap(original)

	root, _ := Root(clone)
	Children(Children(root)[0])[0]["text"] = "changed"

	if leafTexts(mustRoot(t, original))[0] != "Hello" {
		t.Fatal("expected clone mutation not to leak into original")
	}
}

func TestIsStructured(t *testing.T) {
	if !IsStructured(sampleTree()) {
		t.Fatal("expected tree to be structured")
	}
	if IsStructured(map[string]any{"text": "x"}) || IsStructured("x") {
		t.Fatal("expected non-structured values to be rejected")
	}
}

func mustRoot(t *testing.T, value map[string]any) map[string]any {
	t.Helper()
	root, ok := Root(value)
	if !ok {
		t.Fatal("missing root")
	}
	return root
}

func leafTexts(node map[string]any) []string {
	var out []string
	if text, ok := IsTextLeaf(node); ok {
		out = append(out, text)
	}
	for _, child := range Children(node) {
		out = append(out, leafTexts(child)...)
	}
	return out
}
