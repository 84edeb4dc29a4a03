package apperrors

import (
	"errors"

	"github.com/palemoky/lingo-monopoly/internal/protocol"
)

// GameError 游戏错误（引擎和宿主共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(code int) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrSessionNotFound        = newError(protocol.ErrCodeSessionNotFound)
	ErrInvalidPlayerCount     = newError(protocol.ErrCodeInvalidPlayerCount)
	ErrPlayerNotFound         = newError(protocol.ErrCodePlayerNotFound)
	ErrPlayerBankrupt         = newError(protocol.ErrCodePlayerBankrupt)
	ErrGameOver               = newError(protocol.ErrCodeGameOver)
	ErrNotYourTurn            = newError(protocol.ErrCodeNotYourTurn)
	ErrIllegalStateTransition = newError(protocol.ErrCodeIllegalState)
	ErrInvalidDice            = newError(protocol.ErrCodeInvalidDice)
	ErrInvalidOption          = newError(protocol.ErrCodeInvalidOption)
	ErrTargetRequired         = newError(protocol.ErrCodeTargetRequired)
	ErrInvalidTarget          = newError(protocol.ErrCodeInvalidTarget)
	ErrEmptyAnswer            = newError(protocol.ErrCodeEmptyAnswer)
	ErrInvalidBoardReference  = newError(protocol.ErrCodeInvalidBoardRef)
	ErrContentUnavailable     = newError(protocol.ErrCodeContentUnavailable)
	ErrJournalWriteFailure    = newError(protocol.ErrCodeJournalWrite)
)

// Code 返回错误链中第一个 GameError 的错误码，没有则返回 ErrCodeUnknown
func Code(err error) int {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}
