package game

import "strings"

// PauseCause 暂停原因
type PauseCause uint8

const (
	PausePenaltyCard      PauseCause = 1 << iota // 惩罚卡：跳过自己的下一回合
	PauseRoadConstruction                        // 修路：停留在施工格
)

// pauseCheckOrder 调度器检查（和上报）暂停原因的固定顺序
var pauseCheckOrder = []PauseCause{PausePenaltyCard, PauseRoadConstruction}

func (c PauseCause) String() string {
	switch c {
	case PausePenaltyCard:
		return "penalty_card"
	case PauseRoadConstruction:
		return "road_construction"
	default:
		return "unknown"
	}
}

// PauseSet 玩家当前挂起的暂停原因集合
type PauseSet uint8

// With 返回加入 cause 后的集合
func (s PauseSet) With(c PauseCause) PauseSet {
	return s | PauseSet(c)
}

// Has 是否包含 cause
func (s PauseSet) Has(c PauseCause) bool {
	return s&PauseSet(c) != 0
}

// Empty 是否没有任何暂停原因
func (s PauseSet) Empty() bool {
	return s == 0
}

// Causes 按检查顺序列出集合中的原因
func (s PauseSet) Causes() []PauseCause {
	var out []PauseCause
	for _, c := range pauseCheckOrder {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s PauseSet) String() string {
	causes := s.Causes()
	if len(causes) == 0 {
		return "none"
	}
	names := make([]string, len(causes))
	for i, c := range causes {
		names[i] = c.String()
	}
	return strings.Join(names, "+")
}
