package codec

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/imitate/internal/learning"
)

// #region encode

func encodeObservation(obs learning.Observation) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"prior":      obs.Prior,
		"subsequent": obs.Subsequent,
		"score":      obs.Score,
		"session_id": obs.SessionID,
	})
}

func encodeStatsRequest(prior string) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"prior": prior})
}

func encodeStats(stats []learning.FeedbackStats) (*structpb.Struct, error) {
	list := make([]any, len(stats))
	for i, s := range stats {
		list[i] = map[string]any{
			"prior":      s.Prior,
			"subsequent": s.Subsequent,
			"count":      s.Count,
			"cumulative": s.Cumulative,
		}
	}
	return structpb.NewStruct(map[string]any{"stats": list})
}

// #endregion encode

// #region decode

var errMalformed = errors.New("malformed message")

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", errMalformed, name)
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", errMalformed, name)
	}
	return str.StringValue, nil
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", errMalformed, name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a number", errMalformed, name)
	}
	return int(n.NumberValue), nil
}

func decodeObservation(s *structpb.Struct) (learning.Observation, error) {
	var obs learning.Observation
	var err error
	if obs.Prior, err = stringField(s, "prior"); err != nil {
		return obs, err
	}
	if obs.Subsequent, err = stringField(s, "subsequent"); err != nil {
		return obs, err
	}
	if obs.Score, err = intField(s, "score"); err != nil {
		return obs, err
	}
	obs.SessionID, _ = stringField(s, "session_id")
	return obs, nil
}

func decodeStats(s *structpb.Struct) ([]learning.FeedbackStats, error) {
	v, ok := s.GetFields()["stats"]
	if !ok {
		return nil, fmt.Errorf("%w: missing stats", errMalformed)
	}
	values := v.GetListValue().GetValues()
	out := make([]learning.FeedbackStats, 0, len(values))
	for i, item := range values {
		st := item.GetStructValue()
		if st == nil {
			return nil, fmt.Errorf("%w: stats[%d] is not an object", errMalformed, i)
		}
		var fs learning.FeedbackStats
		var err error
		if fs.Prior, err = stringField(st, "prior"); err != nil {
			return nil, err
		}
		if fs.Subsequent, err = stringField(st, "subsequent"); err != nil {
			return nil, err
		}
		if fs.Count, err = intField(st, "count"); err != nil {
			return nil, err
		}
		if fs.Cumulative, err = intField(st, "cumulative"); err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

// #endregion decode
