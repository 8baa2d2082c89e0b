package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ROCm/roc-optiq-sub003/internal/data"
)

func TestCallStackFramesIndexed(t *testing.T) {
	cs := NewCallStack(1, []Frame{
		{FunctionNameID: 10, Depth: 0},
		{FunctionNameID: 20, Depth: 1},
	})

	count, err := cs.GetUInt64(data.CallStackFrameCount, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)

	nameID, err := cs.GetUInt64(data.CallStackFunctionNameID, 1)
	assert.NoError(t, err)
	assert.EqualValues(t, 20, nameID)

	_, err = cs.GetUInt64(data.CallStackFunctionNameID, 5)
	assert.Error(t, err)
}

func TestFlowControlCorrelationsIndexed(t *testing.T) {
	fc := NewFlowControl(1, []Correlation{
		{Direction: DirectionProducer, RelatedEventID: 2},
		{Direction: DirectionConsumer, RelatedEventID: 3},
	})

	count, err := fc.GetUInt64(data.FlowControlCount, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)

	dir, err := fc.GetUInt64(data.FlowControlDirection, 1)
	assert.NoError(t, err)
	assert.EqualValues(t, DirectionConsumer, dir)

	related, err := fc.GetUInt64(data.FlowControlRelatedEventID, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, related)
}
