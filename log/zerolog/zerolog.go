package zerolog

import (
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/netpack"
)

var _ netpack.Logger = Logger{}

type Logger struct{ L zerolog.Logger }

func (z Logger) Debug(msg string, f netpack.Fields) { emit(z.L.Debug(), msg, f) }
func (z Logger) Info(msg string, f netpack.Fields)  { emit(z.L.Info(), msg, f) }
func (z Logger) Warn(msg string, f netpack.Fields)  { emit(z.L.Warn(), msg, f) }
func (z Logger) Error(msg string, f netpack.Fields) { emit(z.L.Error(), msg, f) }

func emit(e *zerolog.Event, msg string, f netpack.Fields) {
	if len(f) > 0 {
		e = e.Fields(map[string]any(f))
	}
	e.Msg(msg)
}
