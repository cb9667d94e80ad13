package stage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// FallbackNarrative replaces the narrative when the collaborator answer cannot be parsed.
const FallbackNarrative = "LLM failed to return valid JSON."

const (
	minMoatScore = 0
	maxMoatScore = 5
)

// ParseOutcome tells which parse attempt succeeded.
type ParseOutcome int

const (
	ParseFailed ParseOutcome = iota
	ParsedRaw
	ParsedFenced
)

func (o ParseOutcome) String() string {
	switch o {
	case ParsedRaw:
		return "raw"
	case ParsedFenced:
		return "fenced"
	default:
		return "fallback"
	}
}

// MoatParse is the tagged result of ParseMoatResponse.
type MoatParse struct {
	Score     int
	Narrative string
	Outcome   ParseOutcome
}

// OK reports whether one of the two attempts produced a valid payload.
func (p MoatParse) OK() bool {
	return p.Outcome != ParseFailed
}

// ParseMoatResponse parses the raw collaborator answer as strict JSON and,
// when that fails, once more after stripping a surrounding code fence.
// It never fails: an unparseable answer yields score 0 and FallbackNarrative.
func ParseMoatResponse(raw string) MoatParse {
	if score, narrative, err := decodeMoat(raw); err == nil {
		return MoatParse{Score: score, Narrative: narrative, Outcome: ParsedRaw}
	}
	if score, narrative, err := decodeMoat(stripCodeFence(raw)); err == nil {
		return MoatParse{Score: score, Narrative: narrative, Outcome: ParsedFenced}
	}
	return MoatParse{Score: 0, Narrative: FallbackNarrative, Outcome: ParseFailed}
}

const (
	keyMoatScore = "moat_score"
	keyNarrative = "narrative"
)

// decodeMoat accepts exactly one object holding the two exact-case keys,
// each once, and nothing after it.
func decodeMoat(text string) (int, string, error) {
	fields, err := readMoatObject(json.NewDecoder(strings.NewReader(text)))
	if err != nil {
		return 0, "", err
	}

	scoreRaw, ok := fields[keyMoatScore]
	if !ok {
		return 0, "", fmt.Errorf("moat payload requires %s", keyMoatScore)
	}
	narrativeRaw, ok := fields[keyNarrative]
	if !ok {
		return 0, "", fmt.Errorf("moat payload requires %s", keyNarrative)
	}
	if isNull(scoreRaw) || isNull(narrativeRaw) {
		return 0, "", errors.New("moat payload fields must not be null")
	}

	var score int
	if err := json.Unmarshal(scoreRaw, &score); err != nil {
		return 0, "", fmt.Errorf("decode %s: %w", keyMoatScore, err)
	}
	var narrative string
	if err := json.Unmarshal(narrativeRaw, &narrative); err != nil {
		return 0, "", fmt.Errorf("decode %s: %w", keyNarrative, err)
	}
	if score < minMoatScore || score > maxMoatScore {
		return 0, "", fmt.Errorf("%s %d out of range", keyMoatScore, score)
	}

	return score, narrative, nil
}

func readMoatObject(dec *json.Decoder) (map[string]json.RawMessage, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read moat payload: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("moat payload must be a JSON object")
	}

	fields := make(map[string]json.RawMessage, 2)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read moat key: %w", err)
		}
		key, _ := tok.(string)
		if key != keyMoatScore && key != keyNarrative {
			return nil, fmt.Errorf("unexpected moat key %q", key)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate moat key %q", key)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("read moat %s: %w", key, err)
		}
		fields[key] = value
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("close moat payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after moat payload")
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
