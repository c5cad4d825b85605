package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeColShapes(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 15, 123456000, time.UTC)

	for _, src := range []any{
		want,
		want.In(time.FixedZone("CAT", 2*60*60)),
		want.Format(TextTimeLayout),
		[]byte(want.Format(time.RFC3339Nano)),
	} {
		var got time.Time
		require.NoError(t, timeCol{dst: &got}.Scan(src), "%T", src)
		assert.True(t, want.Equal(got), "%T: got %v", src, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	var got time.Time
	assert.Error(t, timeCol{dst: &got}.Scan(42))
}

func TestTextTimeLayoutSorts(t *testing.T) {
	a := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	c := a.Add(time.Second)

	assert.Less(t, a.Format(TextTimeLayout), b.Format(TextTimeLayout))
	assert.Less(t, b.Format(TextTimeLayout), c.Format(TextTimeLayout))
}

func TestNullTimeCol(t *testing.T) {
	at := new(time.Time)
	require.NoError(t, nullTimeCol{dst: &at}.Scan(nil))
	assert.Nil(t, at)

	require.NoError(t, nullTimeCol{dst: &at}.Scan("2024-03-01 08:00:00.000000"))
	require.NotNil(t, at)
	assert.Equal(t, 8, at.Hour())
}

func TestJSONCol(t *testing.T) {
	var m map[string]string
	require.NoError(t, jsonCol{dst: &m}.Scan(`{"a":"b"}`))
	assert.Equal(t, "b", m["a"])

	arg, err := jsonArg(map[string]string{"x": "y"})
	require.NoError(t, err)
	assert.Equal(t, `{"x":"y"}`, arg)

	arg, err = jsonArg(nil)
	require.NoError(t, err)
	assert.Nil(t, arg)
}
