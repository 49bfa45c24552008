package domain_test

import (
	"testing"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestNamespace_Keys(t *testing.T) {
	ns := domain.Namespace{KeyPrefix: "app.", FlashKeyPrefix: "flash."}

	assert.Equal(t, "app.name", ns.Key("name"))
	assert.Equal(t, "app.flash.message", ns.FlashKey("message"))
	assert.True(t, ns.Owns("app.flash.message"))
	assert.False(t, ns.Owns("other.name"))
}

func TestNamespace_Clear(t *testing.T) {
	a := domain.Namespace{KeyPrefix: "a.", FlashKeyPrefix: "f."}
	r := domain.Record{"a.x": 1, "a.f.y": 2, "b.x": 3}

	a.Clear(r)

	assert.Equal(t, domain.Record{"b.x": 3}, r)
}

func TestNamespace_EmptyPrefixOwnsEverything(t *testing.T) {
	ns := domain.Namespace{}
	assert.True(t, ns.Owns("anything"))
}

func TestRecord_Take(t *testing.T) {
	r := domain.Record{"k": "v"}

	v, ok := r.Take("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	v, ok = r.Take("k")
	assert.False(t, ok)
	assert.Nil(t, v)
}
