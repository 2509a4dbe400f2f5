package containers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStack_PushPop_LIFOOrder(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	v, ok := s.Pop()
	require.True(t, ok)
	require.Equal(t, 3, v)

	v, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, 2, v)

	v, ok = s.Pop()
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = s.Pop()
	require.False(t, ok, "pop of empty stack must fail rather than panic")
}

func TestStack_Peek_DoesNotRemove(t *testing.T) {
	s := NewStack[string]()
	s.Push("a")
	s.Push("b")

	v, ok := s.Peek()
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, 2, s.Len())
}

func TestStack_Empty(t *testing.T) {
	s := NewStack[int]()
	require.True(t, s.Empty())
	s.Push(1)
	require.False(t, s.Empty())
}

func TestStack_Destroy_AppliesDestructor(t *testing.T) {
	s := NewStack[int]()
	s.Push(1)
	s.Push(2)
	s.Push(3)

	var freed []int
	s.Destroy(func(v int) { freed = append(freed, v) })

	require.Equal(t, []int{3, 2, 1}, freed)
	require.Equal(t, 0, s.Len())
}
