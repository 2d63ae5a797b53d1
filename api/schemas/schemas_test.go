package schemas_test

import (
	"math"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// -- Status --

func TestParseStatus(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name     string
		input    string
		expected schemas.Status
		wantErr  bool
	}{
		{"Exact", "CONTINUE", schemas.StatusContinue, false},
		{"LowerCaseAndSpaces", "  pending ", schemas.StatusPending, false},
		{"AllFinish", "ALLFINISH", schemas.StatusAllFinish, false},
		{"ScreenshotVariant", "SCREENSHOT_RETRY", schemas.StatusScreenshot, false},
		{"PendingCompound", "PENDING_AND_FINISH", schemas.StatusPending, false},
		{"PendingLowerCompound", "continue_pending", schemas.StatusPending, false},
		{"ScreenshotWinsOverPending", "PENDING_SCREENSHOT", schemas.StatusScreenshot, false},
		{"Unknown", "DONE", "", true},
		{"Empty", "", "", true},
	}

	for _, tc := range testCases {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := schemas.ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()
	assert.True(t, schemas.StatusPending.IsPending())
	assert.False(t, schemas.StatusContinue.IsPending())
	assert.True(t, schemas.StatusScreenshot.NeedsReannotation())
	assert.False(t, schemas.StatusFinish.NeedsReannotation())
	// Whatever the raw value says about the gate survives parsing.
	for _, raw := range []string{"PENDING_AND_FINISH", "CONTINUE_PENDING", "PENDING"} {
		st, err := schemas.ParseStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, schemas.Status(raw).IsPending(), st.IsPending(), raw)
	}
	assert.True(t, schemas.StatusAllFinish.IsTerminal())
	assert.False(t, schemas.StatusFinish.IsTerminal())
}

// -- Cost --

func TestCost_AddPoisoning(t *testing.T) {
	t.Parallel()

	total := schemas.KnownCost(0)
	total = total.Add(schemas.KnownCost(1.5))
	require.True(t, total.Valid)
	assert.InDelta(t, 1.5, total.Value, 1e-9)

	total = total.Add(schemas.UnknownCost())
	assert.False(t, total.Valid, "an unknown delta poisons the total")

	total = total.Add(schemas.KnownCost(2))
	assert.False(t, total.Valid, "poison is sticky")
}

func TestKnownCost_RejectsNonAmounts(t *testing.T) {
	t.Parallel()
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -0.01} {
		assert.False(t, schemas.KnownCost(v).Valid, "value %v", v)
	}
	assert.True(t, schemas.KnownCost(0).Valid)
}

func TestCost_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(schemas.UnknownCost())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = json.Marshal(schemas.KnownCost(0.25))
	require.NoError(t, err)
	assert.Equal(t, "0.25", string(data))

	var c schemas.Cost
	require.NoError(t, json.Unmarshal([]byte(`"free"`), &c))
	assert.False(t, c.Valid)
	require.NoError(t, json.Unmarshal([]byte(`0.5`), &c))
	assert.Equal(t, schemas.KnownCost(0.5), c)
}

// -- Args --

func TestArgs_PreservesOrder(t *testing.T) {
	t.Parallel()

	var args schemas.Args
	require.NoError(t, json.Unmarshal([]byte(`{"z": 1, "a": "x", "m": true}`), &args))
	assert.Equal(t, []string{"z", "a", "m"}, args.Keys())

	out, err := json.Marshal(args)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","m":true}`, string(out))
}

func TestArgs_NullAndInvalid(t *testing.T) {
	t.Parallel()

	var args schemas.Args
	require.NoError(t, json.Unmarshal([]byte(`null`), &args))
	assert.Empty(t, args)

	assert.Error(t, json.Unmarshal([]byte(`["button", "left"]`), &args))
}

func TestArgs_GetAndWith(t *testing.T) {
	t.Parallel()

	args := schemas.Args{{Key: "button", Value: "left"}}
	updated := args.With("double", false).With("button", "right")

	v, ok := updated.Get("button")
	require.True(t, ok)
	assert.Equal(t, "right", v)
	assert.Equal(t, []string{"button", "double"}, updated.Keys())

	v, _ = args.Get("button")
	assert.Equal(t, "left", v, "With must not modify the receiver")

	_, ok = args.Get("missing")
	assert.False(t, ok)
}

func TestDecision_RoundTripKeepsArgOrder(t *testing.T) {
	t.Parallel()

	raw := `{"ControlLabel":"3","ControlText":"Open","Function":"click","Args":{"button":"left","double":false},"Status":"CONTINUE","Plan":"<FINISH>"}`
	var d schemas.Decision
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, "click", d.Function)
	assert.Equal(t, schemas.StatusContinue, d.Status)

	rec := schemas.NewActionRecord(d)
	assert.Equal(t, d.Args, rec.Args)
	assert.Equal(t, "", rec.Results)
}
