package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/cigen/pkg/pipeline"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

func TestVariable_Render(t *testing.T) {
	store := pipeline.NewVariableStore()
	plain := store.Declare("PLAIN", pipeline.NewVariable("value"))
	described := store.Declare("DESCRIBED", pipeline.NewVariable("a",
		pipeline.WithDescription("pick one"),
		pipeline.WithOptions("a", "b")))
	overridden := store.Declare("OVERRIDDEN", pipeline.NewVariable("1",
		pipeline.WithVariableOverride(map[string]any{"expand": false})))

	_, err := plain.Render()
	require.ErrorIs(t, err, pipeline.ErrUnnamedVariable)

	require.NoError(t, store.AssignNames())

	got, err := plain.Render()
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	got, err = described.Render()
	require.NoError(t, err)
	out, err := yaml.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "value: a\ndescription: pick one\noptions:\n    - a\n    - b\n", string(out))

	got, err = overridden.Render()
	require.NoError(t, err)
	out, err = yaml.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, "value: \"1\"\nexpand: false\n", string(out))
}

func TestVariable_CheckValue(t *testing.T) {
	store := pipeline.NewVariableStore()
	v := store.Declare("MODE", pipeline.NewVariable("fast", pipeline.WithOptions("fast", "slow")))
	bad := store.Declare("BAD", pipeline.NewVariable("other", pipeline.WithOptions("fast", "slow")))
	require.NoError(t, store.AssignNames())

	require.NoError(t, v.CheckValue())

	v.SetValue("medium")
	err := v.CheckValue()
	require.ErrorIs(t, err, pipeline.ErrInvalidOption)
	assert.Contains(t, err.Error(), "medium")
	assert.Contains(t, err.Error(), "MODE")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "medium", zErr.Metadata()["value"])

	v.Unset()
	require.NoError(t, v.CheckValue())

	require.ErrorIs(t, bad.CheckValue(), pipeline.ErrInvalidOption)
	require.ErrorIs(t, store.Validate(), pipeline.ErrInvalidOption)
}

func TestBoolVariable(t *testing.T) {
	store := pipeline.NewVariableStore()
	b := store.DeclareBool("DEPLOY", pipeline.NewBoolVariable(false))
	require.NoError(t, store.AssignNames())

	assert.Equal(t, []string{pipeline.TrueString, pipeline.FalseString}, b.Options())
	got, err := b.Bool()
	require.NoError(t, err)
	assert.False(t, got)
	assert.False(t, b.IsTrue().Eval())
	assert.True(t, b.IsFalse().Eval())

	b.SetBool(true)
	got, err = b.Bool()
	require.NoError(t, err)
	assert.True(t, got)
	assert.True(t, b.IsTrue().Eval())

	b.SetValue("YES")
	got, err = b.Bool()
	require.NoError(t, err)
	assert.True(t, got)

	b.SetValue("maybe")
	_, err = b.Bool()
	require.ErrorIs(t, err, pipeline.ErrIllegalBoolValue)
	require.ErrorIs(t, b.CheckValue(), pipeline.ErrInvalidOption)

	cond, err := b.IsTrue().Render()
	require.NoError(t, err)
	assert.Equal(t, "($DEPLOY == 'yes')", cond)
	cond, err = b.IsFalse().Render()
	require.NoError(t, err)
	assert.Equal(t, "($DEPLOY != 'yes')", cond)
}

func TestVariableStore(t *testing.T) {
	t.Run("builtins are declared and not rendered", func(t *testing.T) {
		store := pipeline.NewVariableStore()
		v, ok := store.Get(pipeline.CICommitBranch)
		require.True(t, ok)
		assert.False(t, v.HasValue())
		assert.Equal(t, pipeline.CICommitBranch, v.Name())
		assert.True(t, store.IsBuiltin(pipeline.CIJobName))

		require.NoError(t, store.AssignNames())
		rendered, err := store.Render()
		require.NoError(t, err)
		assert.Equal(t, 0, rendered.Len())
	})

	t.Run("declaration order is kept", func(t *testing.T) {
		store := pipeline.NewVariableStore()
		store.Declare("ZETA", pipeline.NewVariable("1"))
		store.Declare("ALPHA", pipeline.NewVariable("2"))
		require.NoError(t, store.AssignNames())

		rendered, err := store.Render()
		require.NoError(t, err)
		assert.Equal(t, []string{"ZETA", "ALPHA"}, rendered.Keys())
	})

	t.Run("duplicate declaration panics", func(t *testing.T) {
		store := pipeline.NewVariableStore()
		store.Declare("X", pipeline.NewVariable(""))
		assert.Panics(t, func() { store.Declare("X", pipeline.NewVariable("")) })
		assert.Panics(t, func() { store.Declare(pipeline.CICommitTag, pipeline.NewVariable("")) })
	})

	t.Run("same variable under two names", func(t *testing.T) {
		store := pipeline.NewVariableStore()
		v := pipeline.NewVariable("")
		store.Declare("FIRST", v)
		store.Declare("SECOND", v)
		require.ErrorIs(t, store.AssignNames(), pipeline.ErrVariableRenamed)
	})

	t.Run("helpers", func(t *testing.T) {
		store := pipeline.NewVariableStore()
		require.NoError(t, store.AssignNames())

		render := func(c *pipeline.Condition) string {
			s, err := c.Render()
			require.NoError(t, err)
			return s
		}
		assert.Equal(t, "($CI_PIPELINE_SOURCE == 'schedule')", render(store.PipelineSourceIs(pipeline.SourceSchedule)))
		assert.Equal(t, "($CI_COMMIT_BRANCH == $CI_DEFAULT_BRANCH)", render(store.BranchIsDefault()))
		assert.Equal(t, "($CI_PIPELINE_SOURCE == 'merge_request_event')", render(store.IsMergeRequest()))
		assert.Equal(t, "($CI_COMMIT_TAG)", render(store.IsTag()))
		assert.Equal(t, "($CI_COMMIT_BRANCH)", render(store.IsBranch()))

		store.MustGet(pipeline.CIMergeRequestID).SetValue("42")
		assert.False(t, store.IsMergeRequest().Eval())
		store.MustGet(pipeline.CIPipelineSource).SetValue(string(pipeline.SourceMergeRequestEvent))
		assert.True(t, store.IsMergeRequest().Eval())

		assert.False(t, store.IsTag().Eval())
		store.MustGet(pipeline.CICommitTag).SetValue("v1.0.0")
		assert.True(t, store.IsTag().Eval())
	})
}
