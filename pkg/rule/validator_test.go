package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/relayvault/pkg/rule"
)

type channelForm struct {
	Name   string `rule:"required,max=32,segment"`
	Weight int    `rule:"gte=1"`
}

func TestEngine(t *testing.T) {
	assert.NotNil(t, rule.Engine())
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, rule.ValidateStruct(channelForm{Name: "primary", Weight: 1}))

	err := rule.ValidateStruct(channelForm{Name: "", Weight: 1})
	require.Error(t, err)
	assert.Contains(t, rule.Errors(err), "Name")

	err = rule.ValidateStruct(channelForm{Name: "a/b", Weight: 0})
	require.Error(t, err)

	errs := rule.Errors(err)
	assert.Equal(t, "failed on segment", errs["Name"])
	assert.Equal(t, "failed on gte=1", errs["Weight"])
}

func TestValidateVarSegment(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"photo.jpg", true},
		{"..hidden", true},
		{".", false},
		{"..", false},
		{"a/b.png", false},
		{`a\b.png`, false},
		{"manage@secret", false},
		{"", false},
	}

	for _, tt := range tests {
		err := rule.ValidateVar(tt.in, "required,max=255,segment")
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}

func TestSegmentProblem(t *testing.T) {
	assert.Empty(t, rule.SegmentProblem("ok"))
	assert.Equal(t, "is empty", rule.SegmentProblem(""))
	assert.Equal(t, "must not be . or ..", rule.SegmentProblem(".."))
	assert.Equal(t, "uses a reserved prefix", rule.SegmentProblem("manage@x"))
	assert.Nil(t, rule.Errors(assert.AnError))
}
