package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get missing = %v, %v", ok, err)
	}

	if err := c.Set(ctx, "k", []byte("png bytes"), 0); err != nil {
		t.Fatal(err)
	}
	data, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(data) != "png bytes" {
		t.Fatalf("Get = %q, %v, %v", data, ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting a missing key errored: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestFileCacheClear(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("entry survived Clear")
	}
}

func TestNullCacheAlwaysMisses(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("null cache returned a hit")
	}
}

func TestRenderKeyDistinguishesOptions(t *testing.T) {
	k := NewDefaultKeyer()
	base := k.RenderKey("abc", RenderKeyOpts{Width: 800, Height: 600})

	if k.RenderKey("abc", RenderKeyOpts{Width: 800, Height: 600}) != base {
		t.Fatal("same inputs gave different keys")
	}
	variants := []RenderKeyOpts{
		{Width: 801, Height: 600},
		{Width: 800, Height: 601},
		{Width: 800, Height: 600, DebugBounds: true},
		{Width: 800, Height: 600, DebugOrigin: true},
		{Width: 800, Height: 600, DebugAxes: true},
	}
	for _, v := range variants {
		if k.RenderKey("abc", v) == base {
			t.Fatalf("option variant %+v collided with base key", v)
		}
	}
	if k.RenderKey("other", RenderKeyOpts{Width: 800, Height: 600}) == base {
		t.Fatal("different snapshot hashes collided")
	}
}
