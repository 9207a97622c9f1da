package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeVarHoistsToFunctionScope(t *testing.T) {
	global := NewScope(nil, true)
	fn := global.ChildFunction()
	block := fn.Child()

	block.Define("x", NumberValue(1), BindVar)

	_, inBlock := block.vars["x"]
	assert.False(t, inBlock)
	_, inFn := fn.vars["x"]
	assert.True(t, inFn)

	v, ok := block.Get("x")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.AsNumber())
}

func TestScopeLetStaysInBlock(t *testing.T) {
	global := NewScope(nil, true)
	block := global.Child()

	block.Define("y", NumberValue(2), BindLet)

	_, ok := global.Get("y")
	assert.False(t, ok)
	v, ok := block.Get("y")
	require.True(t, ok)
	assert.Equal(t, float64(2), v.AsNumber())
}

func TestScopeShadowing(t *testing.T) {
	global := NewScope(nil, true)
	global.Define("n", NumberValue(1), BindLet)
	inner := global.Child()
	inner.Define("n", NumberValue(2), BindLet)

	v, _ := inner.Get("n")
	assert.Equal(t, float64(2), v.AsNumber())
	v, _ = global.Get("n")
	assert.Equal(t, float64(1), v.AsNumber())
}

func TestScopeVarRedeclarationKeepsBinding(t *testing.T) {
	global := NewScope(nil, true)
	global.Define("v", NumberValue(1), BindVar)
	global.Define("v", NumberValue(2), BindVar)

	v, ok := global.Get("v")
	require.True(t, ok)
	assert.Equal(t, float64(2), v.AsNumber())
}

func TestScopeSetWalksChain(t *testing.T) {
	global := NewScope(nil, true)
	global.Define("count", NumberValue(0), BindLet)
	inner := global.Child().Child()

	err := inner.Set("count", NumberValue(5), Position{})
	require.Nil(t, err)

	v, _ := global.Get("count")
	assert.Equal(t, float64(5), v.AsNumber())
}

func TestScopeSetConstFails(t *testing.T) {
	global := NewScope(nil, true)
	global.Define("pi", NumberValue(3.14), BindConst)

	err := global.Set("pi", NumberValue(3), Position{Line: 2, Column: 1})
	require.NotNil(t, err)
	assert.Equal(t, "Type", err.Kind())
	assert.Contains(t, err.Error(), "Assignment to constant variable 'pi'")
}

func TestScopeSetUnboundFails(t *testing.T) {
	global := NewScope(nil, true)

	err := global.Set("ghost", NumberValue(1), Position{})
	require.NotNil(t, err)
	assert.Equal(t, "Reference", err.Kind())
	assert.Contains(t, err.Error(), "ghost is not defined")
}

func TestScopeHas(t *testing.T) {
	global := NewScope(nil, true)
	global.Define("a", Undefined, BindVar)
	inner := global.Child()

	assert.True(t, inner.Has("a"))
	assert.False(t, inner.Has("b"))
}
