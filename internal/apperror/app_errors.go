package apperror

import "errors"

var (
	ErrServerFull        = errors.New("server is full")
	ErrRoundFinished     = errors.New("round has finished")
	ErrInvalidHandshake  = errors.New("invalid connection message")
	ErrUnknownCommand    = errors.New("unknown command")
	ErrWrongArity        = errors.New("wrong number of arguments")
	ErrBadCoordinate     = errors.New("coordinates must be integers")
	ErrOutOfRange        = errors.New("square is outside the grid")
	ErrTooManyCommands   = errors.New("too many commands")
	ErrInvalidEncoding   = errors.New("line is not valid UTF-8")
	ErrResultNotFound    = errors.New("round result not found")
	ErrArchivingDisabled = errors.New("result archiving is disabled")
)
