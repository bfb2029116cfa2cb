package mapper

import (
	"testing"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyEncodeTotal(t *testing.T) {
	for _, v := range []*Vocabulary{FourTokenVocabulary(), TwoTokenVocabulary()} {
		known := map[string]bool{}
		for token := range v.DecodeTable() {
			known[token] = true
		}
		for _, s := range models.Statuses {
			token := v.Encode(s)
			assert.NotEmpty(t, token, "status %s", s)
			assert.True(t, known[token], "token %q for %s must decode", token, s)
		}
	}
}

func TestVocabularyDecode(t *testing.T) {
	four := FourTokenVocabulary()
	two := TwoTokenVocabulary()

	tests := []struct {
		name     string
		vocab    *Vocabulary
		token    string
		expected models.Status
	}{
		{"exact", four, "blocked", models.StatusBlocked},
		{"padded", four, "  done ", models.StatusDone},
		{"case", four, "Waiting", models.StatusWaiting},
		{"unknown", four, "in review", models.StatusPending},
		{"empty", four, "", models.StatusPending},
		{"two token done", two, "済", models.StatusDone},
		{"two token waiting", two, "回答待", models.StatusWaiting},
		{"two token unknown", two, "保留", models.StatusWaiting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.vocab.Decode(tt.token))
		})
	}
}

func TestVocabularyUnknownStatusEncodesDefault(t *testing.T) {
	v := FourTokenVocabulary()
	assert.Equal(t, "pending", v.Encode(models.Status("archived")))
}

func TestNewVocabularyErrors(t *testing.T) {
	_, err := NewVocabulary(map[models.Status]string{models.StatusDone: "ok"}, nil, models.StatusDone)
	assert.Error(t, err, "missing tokens")

	full := map[models.Status]string{
		models.StatusDone: "ok", models.StatusWaiting: "wait",
		models.StatusBlocked: "stop", models.StatusPending: "todo",
	}
	_, err = NewVocabulary(full, nil, models.Status("nope"))
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = NewVocabulary(full, map[string]models.Status{"ok": models.StatusDone}, models.StatusPending)
	assert.Error(t, err, "encoded tokens must decode")

	v, err := NewVocabulary(full, map[string]models.Status{
		"ok": models.StatusDone, "wait": models.StatusWaiting, "stop": models.StatusBlocked,
		"todo": models.StatusPending, "finished": models.StatusDone,
	}, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, v.Decode("finished"))
	assert.Equal(t, models.StatusDone, v.Decode("FINISHED"))
	assert.Equal(t, models.StatusPending, v.Decode("later"))
}
