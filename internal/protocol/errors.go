package protocol

// 错误码
const (
	ErrCodeUnknown            = 1000
	ErrCodeInvalidMsg         = 1001
	ErrCodeSessionNotFound    = 2001
	ErrCodeInvalidPlayerCount = 2002
	ErrCodePlayerNotFound     = 2003
	ErrCodePlayerBankrupt     = 2004
	ErrCodeGameOver           = 2005
	ErrCodeNotYourTurn        = 3001
	ErrCodeIllegalState       = 3002
	ErrCodeInvalidDice        = 3003
	ErrCodeInvalidOption      = 3004
	ErrCodeTargetRequired     = 3005
	ErrCodeInvalidTarget      = 3006
	ErrCodeEmptyAnswer        = 3007
	ErrCodeInvalidBoardRef    = 4001 // 地图数据不一致
	ErrCodeContentUnavailable = 4002 // 题目内容服务不可用
	ErrCodeJournalWrite       = 5001 // 历程写入失败（不阻塞游戏）
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "未知错误",
	ErrCodeInvalidMsg:         "无效的消息格式",
	ErrCodeSessionNotFound:    "游戏会话不存在",
	ErrCodeInvalidPlayerCount: "玩家人数必须为 2-4 人",
	ErrCodePlayerNotFound:     "玩家不存在",
	ErrCodePlayerBankrupt:     "玩家已破产",
	ErrCodeGameOver:           "游戏已结束",
	ErrCodeNotYourTurn:        "还没轮到您",
	ErrCodeIllegalState:       "当前状态不允许该操作",
	ErrCodeInvalidDice:        "无效的骰子点数",
	ErrCodeInvalidOption:      "无效的选项",
	ErrCodeTargetRequired:     "需要选择目标玩家",
	ErrCodeInvalidTarget:      "无效的目标玩家",
	ErrCodeEmptyAnswer:        "回答不能为空",
	ErrCodeInvalidBoardRef:    "地图节点不存在",
	ErrCodeContentUnavailable: "题目内容暂时无法获取",
	ErrCodeJournalWrite:       "游戏历程写入失败",
}
