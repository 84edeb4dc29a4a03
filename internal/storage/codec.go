package storage

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/palemoky/lingo-monopoly/internal/game"
)

// encodeRecord 把一条记录编码为 protobuf 格式的 Struct
func encodeRecord(rec game.ActionRecord) ([]byte, error) {
	fields := map[string]any{
		"timestamp":   rec.Timestamp.UTC().Format(time.RFC3339Nano),
		"player_id":   rec.PlayerID,
		"player_name": rec.PlayerName,
		"action_type": string(rec.ActionType),
		"description": rec.Description,
	}
	if len(rec.Details) > 0 {
		fields["details"] = rec.Details
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return proto.Marshal(st)
}

// decodeRecord 还原记录。数字统一为 float64，列表为 []any
func decodeRecord(data []byte) (game.ActionRecord, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return game.ActionRecord{}, fmt.Errorf("decode record: %w", err)
	}
	m := st.AsMap()

	rec := game.ActionRecord{}
	if ts, ok := m["timestamp"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return game.ActionRecord{}, fmt.Errorf("decode record timestamp: %w", err)
		}
		rec.Timestamp = t
	}
	if id, ok := m["player_id"].(float64); ok {
		rec.PlayerID = int(id)
	}
	rec.PlayerName, _ = m["player_name"].(string)
	if at, ok := m["action_type"].(string); ok {
		rec.ActionType = game.ActionType(at)
	}
	rec.Description, _ = m["description"].(string)
	rec.Details, _ = m["details"].(map[string]any)
	return rec, nil
}

func encodeTime(t time.Time) ([]byte, error) {
	return proto.Marshal(timestamppb.New(t))
}

func decodeTime(data []byte) (time.Time, error) {
	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(data, &ts); err != nil {
		return time.Time{}, err
	}
	return ts.AsTime(), nil
}
