package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/team-azb/route-bucket-backend-sub000/internal/apperr"
)

func TestRoute_PushUndoRedo_RestoresTemplateSequence(t *testing.T) {
	r := NewRoute("test route", UserId("owner"), false)

	op1, err := NewAddOperation(0, yokohama(t), FollowRoad, r.SegList)
	require.NoError(t, err)
	r.PushOperation(op1)

	op2, err := NewAddOperation(1, tokyo(t), FollowRoad, r.SegList)
	require.NoError(t, err)
	r.PushOperation(op2)

	assert.Equal(t, 2, r.Info.OpCursor)
	assert.Equal(t, 2, len(r.OpLog))

	afterAdds := TemplateSequence(r.SegList)

	require.NoError(t, r.UndoOperation())
	assert.Equal(t, 1, r.Info.OpCursor)

	require.NoError(t, r.RedoOperation())
	assert.Equal(t, 2, r.Info.OpCursor)

	afterRedo := TemplateSequence(r.SegList)
	require.Equal(t, len(afterAdds), len(afterRedo))
	for i := range afterAdds {
		assert.True(t, afterAdds[i].Start.Equal(afterRedo[i].Start))
	}
}

func TestRoute_UndoAtCursorZeroFails(t *testing.T) {
	r := NewRoute("test route", UserId("owner"), false)
	err := r.UndoOperation()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidOperation))
}

func TestRoute_RedoAtEndOfLogFails(t *testing.T) {
	r := NewRoute("test route", UserId("owner"), false)
	op, err := NewAddOperation(0, yokohama(t), FollowRoad, r.SegList)
	require.NoError(t, err)
	r.PushOperation(op)

	err = r.RedoOperation()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidOperation))
}

func TestRoute_PushOperation_TruncatesRedoTail(t *testing.T) {
	r := NewRoute("test route", UserId("owner"), false)
	op1, _ := NewAddOperation(0, yokohama(t), FollowRoad, r.SegList)
	r.PushOperation(op1)
	op2, _ := NewAddOperation(1, tokyo(t), FollowRoad, r.SegList)
	r.PushOperation(op2)

	require.NoError(t, r.UndoOperation())
	assert.Equal(t, 1, r.Info.OpCursor)
	assert.Equal(t, 2, len(r.OpLog))

	op3, err := NewAddOperation(1, chiba(t), FollowRoad, r.SegList)
	require.NoError(t, err)
	r.PushOperation(op3)

	assert.Equal(t, 2, r.Info.OpCursor)
	assert.Equal(t, 2, len(r.OpLog))
	assert.True(t, r.OpLog[1].Equal(op3))
}

func TestRoute_Clear_EmptiesSegList(t *testing.T) {
	r := NewRoute("test route", UserId("owner"), false)
	op1, _ := NewAddOperation(0, yokohama(t), FollowRoad, r.SegList)
	r.PushOperation(op1)
	op2, _ := NewAddOperation(1, tokyo(t), FollowRoad, r.SegList)
	r.PushOperation(op2)

	r.Clear(FollowRoad)
	assert.Equal(t, 0, r.SegList.Len())
}
