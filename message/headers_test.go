package message_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThreeDotsLabs/relay/message"
)

func TestHeaders_GetString(t *testing.T) {
	h := message.Headers{}
	h.SetString("str", "value")
	h.SetInt("int", 7)
	h.SetDestination("reply", message.Queue("orders.reply"))
	h["bool"] = true
	h["unsupported"] = struct{}{}

	testCases := []struct {
		Name     string
		Expected string
	}{
		{Name: "str", Expected: "value"},
		{Name: "int", Expected: "7"},
		{Name: "reply", Expected: "queue://orders.reply"},
		{Name: "bool", Expected: "true"},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			v, err := h.GetString(tc.Name)
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, v)
		})
	}

	_, err := h.GetString("unsupported")
	assert.IsType(t, message.HeaderTypeError{}, err)

	_, err = h.GetString("missing")
	assert.True(t, errors.Is(err, message.ErrHeaderNotFound))
}

func TestHeaders_GetInt(t *testing.T) {
	h := message.Headers{}
	h.SetInt("int", 3)
	h.SetString("str", "12")
	h.SetString("malformed", "twelve")

	i, err := h.GetInt("int")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	i, err = h.GetInt("str")
	require.NoError(t, err)
	assert.Equal(t, 12, i)

	_, err = h.GetInt("malformed")
	var typeErr message.HeaderTypeError
	assert.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "malformed", typeErr.Name)

	_, err = h.GetInt("missing")
	assert.True(t, errors.Is(err, message.ErrHeaderNotFound))
}

func TestHeaders_GetDestination(t *testing.T) {
	h := message.Headers{}
	h.SetDestination("topic", message.Topic("audit"))
	h.SetString("str", "audit")

	d, err := h.GetDestination("topic")
	require.NoError(t, err)
	assert.Equal(t, "audit", d.DestinationName())
	assert.Equal(t, "topic://audit", d.String())

	_, err = h.GetDestination("str")
	assert.Error(t, err)
}

func TestHeaders_Copy(t *testing.T) {
	h := message.Headers{"a": "1"}
	cpy := h.Copy()
	cpy.SetString("a", "2")
	cpy.Delete("missing")

	assert.Equal(t, "1", h.Get("a"))
	assert.Equal(t, []string{"a"}, cpy.Names())
}
