package preview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeide/forge/internal/config"
	"github.com/forgeide/forge/internal/vfs"
)

func newTestPipeline(tree *vfs.Tree, debounce time.Duration) *Pipeline {
	tr := NewTransformer(config.DefaultExternals(), testLogger())
	return NewPipeline(tree, tr, debounce, testLogger())
}

func TestPipelineDebounceCoalesces(t *testing.T) {
	tree := vfs.New()
	id, _ := tree.CreateFile(vfs.RootID, "main.js")

	p := newTestPipeline(tree, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	ch := p.Subscribe()

	// A burst of edits within the quiet period.
	for i := 0; i < 5; i++ {
		require.NoError(t, tree.Write(id, "console.log("+string(rune('0'+i))+");"))
		time.Sleep(5 * time.Millisecond)
	}

	var res Result
	select {
	case res = <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced rebuild never fired")
	}

	// One regeneration, reflecting the final edit.
	assert.Contains(t, res.Map.Modules["./main.js"], "console.log(4)")

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra regeneration %d", extra.Generation)
	case <-time.After(150 * time.Millisecond):
	}

	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, res.Generation, cur.Generation)
}

func TestPipelineInitialBuild(t *testing.T) {
	tree := vfs.NewSeeded()
	p := newTestPipeline(tree, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	res, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(1), res.Generation)
	assert.NotEmpty(t, res.Document)
}

func TestPipelineStaleGeneration(t *testing.T) {
	tree := vfs.New()
	p := newTestPipeline(tree, time.Hour)

	first := p.Rebuild()
	second := p.Rebuild()

	assert.True(t, p.IsStale(first.Generation))
	assert.False(t, p.IsStale(second.Generation))
	// Messages from a torn-down sandbox carry an unknown generation.
	assert.True(t, p.IsStale(999))
}

func TestPipelineSetTarget(t *testing.T) {
	tree := vfs.New()
	tree.CreateFile(vfs.RootID, "index.html")
	id, _ := tree.CreateFile(vfs.RootID, "widget.tsx")

	p := newTestPipeline(tree, 10*time.Millisecond)
	res := p.Rebuild()
	assert.Equal(t, EntryDocument, res.Entry.Kind)

	p.SetTarget(id)
	deadline := time.Now().Add(2 * time.Second)
	for {
		cur, ok := p.Current()
		if ok && cur.Entry.Kind == EntryScript {
			assert.Equal(t, "widget.tsx", cur.Entry.Path)
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("target rebuild never landed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPipelineTransformErrorsSurface(t *testing.T) {
	tree := vfs.New()
	bad, _ := tree.CreateFile(vfs.RootID, "broken.tsx")
	tree.Write(bad, "const = <")

	p := newTestPipeline(tree, time.Hour)
	res := p.Rebuild()

	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "broken.tsx", res.Errors[0].File)
	// A failing file still yields a displayable page, and the page
	// itself names the failure.
	assert.NotEmpty(t, res.Document)
	assert.Contains(t, res.Document, "forge-error-overlay")
	assert.Contains(t, res.Document, "broken.tsx:1:")
}
