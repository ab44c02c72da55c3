package syntree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/gosyntax/pkg/syntree"
)

func walkFixture() *syntree.Node {
	root := syntree.NewNode(0, 0, 10)
	a := syntree.NewNode(1, 0, 5)
	b := syntree.NewNode(2, 5, 10)
	syntree.AppendChild(root, a)
	syntree.AppendChild(root, b)
	syntree.AppendChild(a, syntree.NewNode(3, 1, 2))
	syntree.AppendChild(a, syntree.NewNode(2, 3, 4))
	return root
}

func TestWalk_PreOrder(t *testing.T) {
	t.Parallel()

	var visited []syntree.TypeID
	err := syntree.Walk(walkFixture(), func(n *syntree.Node) error {
		visited = append(visited, n.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []syntree.TypeID{0, 1, 3, 2, 2}, visited)
}

func TestWalk_StopsOnError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("stop")
	count := 0
	err := syntree.Walk(walkFixture(), func(n *syntree.Node) error {
		count++
		if n.Type == 3 {
			return sentinel
		}
		return nil
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, count)
}

func TestWalk_NilRoot(t *testing.T) {
	t.Parallel()

	err := syntree.Walk(nil, func(n *syntree.Node) error {
		t.Fatal("callback on nil root")
		return nil
	})
	assert.NoError(t, err)
}

func TestWalkWithContext(t *testing.T) {
	t.Parallel()

	var events []string
	err := syntree.WalkWithContext(walkFixture(),
		func(n *syntree.Node) error {
			events = append(events, "enter")
			return nil
		},
		func(n *syntree.Node) error {
			events = append(events, "leave")
			return nil
		})
	require.NoError(t, err)
	assert.Len(t, events, 10)
	assert.Equal(t, "enter", events[0])
	assert.Equal(t, "leave", events[len(events)-1])
}

func TestFindHelpers(t *testing.T) {
	t.Parallel()

	root := walkFixture()

	all := syntree.FindAll(root, func(n *syntree.Node) bool { return n.Type == 2 })
	assert.Len(t, all, 2)

	first := syntree.FindFirst(root, func(n *syntree.Node) bool { return n.Type == 2 })
	require.NotNil(t, first)
	assert.Equal(t, 3, first.Start)

	assert.Nil(t, syntree.FindFirst(root, func(n *syntree.Node) bool { return n.Type == 9 }))

	byType := syntree.FindByType(root, 3)
	require.Len(t, byType, 1)
	assert.Equal(t, 1, byType[0].Start)
}
