package esp

import (
	"fmt"

	"github.com/nerrad567/gardencore/internal/infrastructure/mqtt"
)

// Subscriber is the part of the router Register needs. *mqtt.Router implements it.
type Subscriber interface {
	SubscribeHandler(h mqtt.TopicHandler) error
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handlers returns one handler per inbound message family.
func Handlers(deps Deps) []mqtt.TopicHandler {
	return []mqtt.TopicHandler{
		NewSensorHandler(deps),
		NewConfirmHandler(deps),
		NewConnHandler(deps),
		NewStatusHandler(deps),
	}
}

// Register subscribes every handler on the router. It is called once at
// startup, after the broker session is established.
func Register(sub Subscriber, handlers ...mqtt.TopicHandler) error {
	for _, h := range handlers {
		if err := sub.SubscribeHandler(h); err != nil {
			return fmt.Errorf("registering %s: %w", h.Template(), err)
		}
	}
	return nil
}
