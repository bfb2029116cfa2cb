package mapper

import (
	"fmt"
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// Vocabulary is the closed mapping between internal status codes and the
// textual tokens stored in the grid. Encoding is total over models.Statuses;
// decoding never fails and falls back to the default status.
type Vocabulary struct {
	encode map[models.Status]string
	decode map[string]models.Status
	folded map[string]models.Status
	def    models.Status
}

// NewVocabulary builds a vocabulary. encode must name a token for every
// internal status. decode lists inbound tokens; when nil it is derived from
// encode, with a token shared by several statuses decoding to the first of
// them in canonical order.
func NewVocabulary(encode map[models.Status]string, decode map[string]models.Status, def models.Status) (*Vocabulary, error) {
	if !def.Valid() {
		return nil, fmt.Errorf("%w: default status %q", ErrUnknownStatus, def)
	}
	v := &Vocabulary{
		encode: make(map[models.Status]string, len(models.Statuses)),
		decode: make(map[string]models.Status),
		folded: make(map[string]models.Status),
		def:    def,
	}
	for status, token := range encode {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("vocabulary: empty token for status %q", status)
		}
		v.encode[status] = token
	}
	for _, status := range models.Statuses {
		if _, ok := v.encode[status]; !ok {
			return nil, fmt.Errorf("vocabulary: no token for status %q", status)
		}
	}

	if decode == nil {
		for _, status := range models.Statuses {
			token := v.encode[status]
			if _, taken := v.decode[token]; !taken {
				v.decode[token] = status
			}
		}
	} else {
		for token, status := range decode {
			if !status.Valid() {
				return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
			}
			v.decode[strings.TrimSpace(token)] = status
		}
		for _, status := range models.Statuses {
			token := v.encode[status]
			if _, ok := v.decode[token]; !ok {
				return nil, fmt.Errorf("vocabulary: encoded token %q for %q does not decode", token, status)
			}
		}
	}
	for token, status := range v.decode {
		v.folded[strings.ToLower(token)] = status
	}
	return v, nil
}

// MustVocabulary is NewVocabulary for static tables; it panics on error.
func MustVocabulary(encode map[models.Status]string, decode map[string]models.Status, def models.Status) *Vocabulary {
	v, err := NewVocabulary(encode, decode, def)
	if err != nil {
		panic(err)
	}
	return v
}

// FourTokenVocabulary stores the internal codes verbatim.
func FourTokenVocabulary() *Vocabulary {
	return MustVocabulary(map[models.Status]string{
		models.StatusDone:    "done",
		models.StatusWaiting: "waiting",
		models.StatusBlocked: "blocked",
		models.StatusPending: "pending",
	}, nil, models.StatusPending)
}

// TwoTokenVocabulary is the 済 (done) / 回答待 (awaiting reply) vocabulary.
func TwoTokenVocabulary() *Vocabulary {
	return MustVocabulary(map[models.Status]string{
		models.StatusDone:    "済",
		models.StatusWaiting: "回答待",
		models.StatusBlocked: "回答待",
		models.StatusPending: "回答待",
	}, nil, models.StatusWaiting)
}

// Default returns the status used for unknown or absent tokens.
func (v *Vocabulary) Default() models.Status {
	return v.def
}

// Encode returns the grid token of a status. Statuses outside the internal
// set encode as the default status.
func (v *Vocabulary) Encode(s models.Status) string {
	if token, ok := v.encode[s]; ok {
		return token
	}
	return v.encode[v.def]
}

// Decode maps a grid token to its status. Surrounding space is ignored,
// case-insensitive matches are accepted, and anything else yields Default.
func (v *Vocabulary) Decode(token string) models.Status {
	token = strings.TrimSpace(token)
	if token == "" {
		return v.def
	}
	if s, ok := v.decode[token]; ok {
		return s
	}
	if s, ok := v.folded[strings.ToLower(token)]; ok {
		return s
	}
	return v.def
}

// EncodeTable returns a copy of the status to token table.
func (v *Vocabulary) EncodeTable() map[models.Status]string {
	out := make(map[models.Status]string, len(v.encode))
	for k, t := range v.encode {
		out[k] = t
	}
	return out
}

// DecodeTable returns a copy of the token to status table.
func (v *Vocabulary) DecodeTable() map[string]models.Status {
	out := make(map[string]models.Status, len(v.decode))
	for k, s := range v.decode {
		out[k] = s
	}
	return out
}
