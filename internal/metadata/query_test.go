package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tstenner/liblsl/internal/model"
)

func sample() *model.StreamInfo {
	return &model.StreamInfo{Name: "MyStream", Type: "EEG", SourceID: "src1"}
}

func TestMatchesQuery_EmptyMatchesEverything(t *testing.T) {
	assert.True(t, MatchesQuery(sample(), ""))
}

func TestMatchesQuery_NameEquality(t *testing.T) {
	assert.True(t, MatchesQuery(sample(), "name='MyStream'"))
	assert.False(t, MatchesQuery(sample(), "name='Other'"))
}

func TestMatchesQuery_And(t *testing.T) {
	assert.True(t, MatchesQuery(sample(), "name='MyStream' and type='EEG'"))
	assert.False(t, MatchesQuery(sample(), "name='MyStream' and type='ECG'"))
}

func TestMatchesQuery_Or(t *testing.T) {
	assert.True(t, MatchesQuery(sample(), "name='Other' or type='EEG'"))
	assert.False(t, MatchesQuery(sample(), "name='Other' or type='ECG'"))
}

func TestMatchesQuery_UnknownField(t *testing.T) {
	assert.False(t, MatchesQuery(sample(), "bogus='x'"))
}
