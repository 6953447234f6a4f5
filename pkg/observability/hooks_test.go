package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Traversal hooks
	tr := NoopTraversalHooks{}
	tr.OnCycleStart(ctx, "https://example.org/anno/1")
	tr.OnCycleEnd(ctx, "https://example.org/anno/1", time.Second, nil)
	tr.OnRunComplete(ctx, 4, 1, time.Second)
	tr.OnClassified(ctx, "music-notation")

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "example.org", "/anno/1")
	h.OnResponse(ctx, "GET", "example.org", "/anno/1", 200, time.Second)
	h.OnError(ctx, "HEAD", "example.org", "/anno/1", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Traversal().(NoopTraversalHooks); !ok {
		t.Error("Traversal() should return NoopTraversalHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customTraversal := &testTraversalHooks{}
	SetTraversalHooks(customTraversal)
	if Traversal() != customTraversal {
		t.Error("SetTraversalHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Traversal().(NoopTraversalHooks); !ok {
		t.Error("Reset() should restore NoopTraversalHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testTraversalHooks{}
	SetTraversalHooks(custom)

	// Setting nil should be ignored
	SetTraversalHooks(nil)

	if Traversal() != custom {
		t.Error("SetTraversalHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testTraversalHooks struct{ NoopTraversalHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestSettingOneHookKeepsTheOther(t *testing.T) {
	Reset()
	defer Reset()

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	SetTraversalHooks(&testTraversalHooks{})

	if HTTP() != customHTTP {
		t.Error("SetTraversalHooks replaced the HTTP hooks")
	}
}
